package proofgrp

import "github.com/contentledger/notary/foundation/blockchain/proof"

type proofResponse struct {
	Proof proof.Proof `json:"proof"`
}

type certificateResponse struct {
	Certificate proof.Certificate `json:"certificate"`
}

type verifyResponse struct {
	CertificateID string `json:"certificate_id"`
	Valid         bool   `json:"valid"`
	Error         string `json:"error,omitempty"`
}
