package hashgrp

import "github.com/contentledger/notary/foundation/blockchain/fingerprint"

type hashRequest struct {
	Content   string `json:"content" validate:"required"`
	Algorithm string `json:"algorithm"`
}

type hashResponse struct {
	ContentHash   string `json:"content_hash"`
	Algorithm     string `json:"algorithm"`
	ContentLength int    `json:"content_length"`
}

type batchRequest struct {
	ContentList []string `json:"content_list" validate:"required,min=1"`
}

type batchResponse struct {
	BatchHash fingerprint.Batch `json:"batch_hash"`
}

type verifyRequest struct {
	Content   string `json:"content" validate:"required"`
	Hash      string `json:"hash" validate:"required"`
	Algorithm string `json:"algorithm"`
}

type verifyResponse struct {
	IntegrityValid bool   `json:"integrity_valid"`
	ProvidedHash   string `json:"provided_hash"`
	CalculatedHash string `json:"calculated_hash"`
	Algorithm      string `json:"algorithm"`
}
