package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TradeID computes a deterministic trade id using SHA256.
// Formula: SHA256(user_id|strategy_id|symbol|trade_date)
// Returns hex-encoded hash (64 characters).
func TradeID(userID, strategyID, symbol string, tradeDate int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", userID, strategyID, symbol, tradeDate)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// LogID computes a deterministic market log id using SHA256.
// Formula: SHA256(user_id|symbol|log_date)
func LogID(userID, symbol string, logDate int64) string {
	data := fmt.Sprintf("%s|%s|%d", userID, symbol, logDate)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
