// Package payment отвечает за взаимодействие с платёжным шлюзом:
// локальную проверку подписи платежа и создание заказа на стороне шлюза.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signature вычисляет hex-подпись HMAC-SHA256 над строкой
// "<gatewayOrderID>|<gatewayPaymentID>" с общим секретом шлюза.
func Signature(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature проверяет подлинность подтверждения платежа.
// Сравнение выполняется за константное время; секрет и подпись
// не логируются и не сохраняются.
func VerifySignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	expected := Signature(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
