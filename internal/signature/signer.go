package signature

// Signer binds the merchant credentials so callers never pass the salt
// around.
type Signer struct {
	key  string
	salt string
}

func NewSigner(key, salt string) *Signer {
	return &Signer{key: key, salt: salt}
}

func (s *Signer) Key() string { return s.key }

// SignRequest always signs with the configured merchant key.
func (s *Signer) SignRequest(f RequestFields) string {
	f.Key = s.key
	return Request(f, s.salt)
}

func (s *Signer) SignResponse(f ResponseFields) string {
	return Response(f, s.salt)
}

func (s *Signer) VerifyResponse(f ResponseFields, hash string) bool {
	return VerifyResponse(f, hash, s.salt)
}

// VerifyValues verifies a flat gateway payload (form fields or webhook body).
func (s *Signer) VerifyValues(v map[string]string) bool {
	f, hash := FieldsFromValues(v)
	return s.VerifyResponse(f, hash)
}

func (s *Signer) SignCommand(command, var1 string) string {
	return Command(s.key, command, var1, s.salt)
}
