package notify

import (
	"encoding/json"
	"fmt"
)

// EmailSubject returns the subject line for a notification type
func EmailSubject(notificationType string) string {
	switch notificationType {
	case TypeWelcome:
		return "Welcome to CouponAli!"
	case TypeOrderConfirmation:
		return "Order Confirmed - Your Vouchers"
	case TypeCashbackConfirmed:
		return "Cashback Credited to Your Wallet"
	case TypeWithdrawalProcessed:
		return "Withdrawal Processed Successfully"
	default:
		return "Notification"
	}
}

// EmailBody renders the HTML body for a notification type. Unknown types
// get a generic body carrying the raw data so nothing is silently dropped.
func EmailBody(notificationType string, data map[string]interface{}) string {
	switch notificationType {
	case TypeWelcome:
		return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #4F46E5;">Welcome to CouponAli!</h1>
  <p>Hi %s,</p>
  <p>Thank you for joining CouponAli - India's best cashback &amp; coupon platform!</p>
  <ul>
    <li>Browse 1000+ stores and offers</li>
    <li>Get cashback on every purchase</li>
    <li>Redeem your earnings via UPI/Bank</li>
  </ul>
  <p>Happy saving!<br>Team CouponAli</p>
</div>`, stringField(data, "user_name", "there"))

	case TypeOrderConfirmation:
		return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #059669;">Order Confirmed!</h1>
  <p>Hi %s,</p>
  <p>Your order <strong>%s</strong> has been confirmed.</p>
  <p><strong>Total Amount:</strong> &#8377;%s</p>
  <p>Thank you for your purchase!<br>Team CouponAli</p>
</div>`,
			stringField(data, "user_name", "there"),
			stringField(data, "order_number", ""),
			stringField(data, "total_amount", "0"))

	case TypeCashbackConfirmed:
		return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #10B981;">Cashback Credited!</h1>
  <p>Hi %s,</p>
  <p>Great news! Your cashback has been credited to your wallet.</p>
  <div style="background: #D1FAE5; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h2 style="color: #059669; margin: 0;">&#8377;%s</h2>
    <p style="margin: 5px 0 0 0;">Cashback from %s</p>
  </div>
</div>`,
			stringField(data, "user_name", "there"),
			stringField(data, "amount", "0"),
			stringField(data, "merchant_name", "merchant"))

	case TypeWithdrawalProcessed:
		return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #6366F1;">Withdrawal Processed!</h1>
  <p>Hi %s,</p>
  <p>Your withdrawal request has been processed successfully.</p>
  <p><strong>Amount:</strong> &#8377;%s</p>
  <p><strong>Method:</strong> %s</p>
  <p>The amount will be credited to your account within 24-48 hours.</p>
</div>`,
			stringField(data, "user_name", "there"),
			stringField(data, "amount", "0"),
			stringField(data, "method", ""))

	default:
		raw, _ := json.Marshal(data)
		return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>CouponAli Notification</h1>
  <p>%s</p>
</div>`, string(raw))
	}
}

// SMSText renders the message body for an SMS notification type
func SMSText(notificationType string, data map[string]interface{}) string {
	switch notificationType {
	case TypeOTP:
		return fmt.Sprintf("Your OTP for CouponAli is %s. Valid for 10 minutes. Do not share with anyone.",
			stringField(data, "otp", ""))
	case TypeOrderConfirmation:
		return fmt.Sprintf("Order %s confirmed! Amount: Rs.%s. Your voucher codes are ready. Check your email or app.",
			stringField(data, "order_number", ""), stringField(data, "amount", "0"))
	case TypeCashbackCreditedSMS:
		return fmt.Sprintf("Rs.%s cashback credited to your CouponAli wallet from %s.",
			stringField(data, "amount", "0"), stringField(data, "merchant_name", "merchant"))
	case TypeWithdrawalProcessed:
		return fmt.Sprintf("Withdrawal of Rs.%s processed successfully. It will be credited to your account within 24 hours.",
			stringField(data, "amount", "0"))
	default:
		raw, _ := json.Marshal(data)
		return fmt.Sprintf("CouponAli: %s", string(raw))
	}
}

// stringField reads a data value as text. Numbers come through JSON
// decoding as float64 and are rendered without a trailing .00 for whole
// values.
func stringField(data map[string]interface{}, key, fallback string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return fallback
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return fallback
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
