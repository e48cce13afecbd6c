package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCashbackStatusValid(t *testing.T) {
	for _, status := range []CashbackStatus{StatusPending, StatusApproved, StatusRejected, StatusCancelled} {
		assert.True(t, status.Valid(), "status %s", status)
	}
	assert.False(t, CashbackStatus("hold").Valid())
	assert.False(t, CashbackStatus("").Valid())
}

func TestAllNetworks(t *testing.T) {
	assert.Equal(t, []Network{NetworkAdmitad, NetworkVCommission, NetworkCueLinks}, AllNetworks)
}

func TestServiceErrorMessage(t *testing.T) {
	err := &ServiceError{Code: "NOT_FOUND", Message: "no such queue"}
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "no such queue")
}
