// Package signature implements the gateway's SHA-512 hash scheme for
// outbound payment requests, inbound responses and server-to-server
// commands.
package signature

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// reservedFields is the number of always-empty udf6..udf10 slots that
// follow udf5 in the request hash.
const reservedFields = 5

type RequestFields struct {
	Key         string
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	UDF         [5]string
}

type ResponseFields struct {
	Key               string
	TxnID             string
	Amount            string
	ProductInfo       string
	FirstName         string
	Email             string
	UDF5              string
	Status            string
	AdditionalCharges string
}

func digest(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Request computes the hash posted with the payment form:
// key|txnid|amount|productinfo|firstname|email|udf1..udf5|<5 empty>|salt.
func Request(f RequestFields, salt string) string {
	parts := make([]string, 0, 12+reservedFields)
	parts = append(parts, f.Key, f.TxnID, f.Amount, f.ProductInfo, f.FirstName, f.Email)
	parts = append(parts, f.UDF[:]...)
	for i := 0; i < reservedFields; i++ {
		parts = append(parts, "")
	}
	parts = append(parts, salt)
	return digest(strings.Join(parts, "|"))
}

// Response computes the reverse hash the gateway attaches to responses and
// webhooks. When additional charges were applied they lead the string.
func Response(f ResponseFields, salt string) string {
	fields := []string{
		f.Key, f.TxnID, f.Amount, f.ProductInfo, f.FirstName, f.Email,
		"", "", "", "", f.UDF5,
		"", "", "", "", "",
	}
	for i, j := 0, len(fields)-1; i < j; i, j = i+1, j-1 {
		fields[i], fields[j] = fields[j], fields[i]
	}
	s := salt + "|" + f.Status + "|" + strings.Join(fields, "|")
	if f.AdditionalCharges != "" {
		s = f.AdditionalCharges + "|" + s
	}
	return digest(s)
}

// VerifyResponse reports whether hash matches the recomputed response hash.
// Comparison ignores case.
func VerifyResponse(f ResponseFields, hash, salt string) bool {
	if hash == "" {
		return false
	}
	want := Response(f, salt)
	got := strings.ToLower(strings.TrimSpace(hash))
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// Command signs a server-to-server call: key|command|var1|salt.
func Command(key, command, var1, salt string) string {
	return digest(key + "|" + command + "|" + var1 + "|" + salt)
}

// FieldsFromValues reads the signed response fields out of a flat payload
// and returns them with the hash the payload carries.
func FieldsFromValues(v map[string]string) (ResponseFields, string) {
	return ResponseFields{
		Key:               v["key"],
		TxnID:             v["txnid"],
		Amount:            v["amount"],
		ProductInfo:       v["productinfo"],
		FirstName:         v["firstname"],
		Email:             v["email"],
		UDF5:              v["udf5"],
		Status:            v["status"],
		AdditionalCharges: v["additionalCharges"],
	}, v["hash"]
}
