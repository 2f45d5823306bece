// Package proofgrp maintains the group of handlers for verification proofs
// and certificates.
package proofgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	v1 "github.com/contentledger/notary/business/web/v1"
	"github.com/contentledger/notary/foundation/blockchain/proof"
	"github.com/contentledger/notary/foundation/blockchain/state"
	"github.com/contentledger/notary/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of proof endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Builder *proof.Builder
}

// Proof returns the verification proof for the content hash.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.Builder.BuildProof(web.Param(r, "hash"))
	if err != nil {
		return notFound(err, "build proof")
	}

	return web.Respond(ctx, w, proofResponse{Proof: p}, http.StatusOK)
}

// Certificate issues a certificate for the content hash.
func (h Handlers) Certificate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	cert, err := h.Builder.IssueCertificate(web.Param(r, "hash"))
	if err != nil {
		return notFound(err, "issue certificate")
	}

	h.Log.Infow("certificate issued", "traceid", v.TraceID, "certificate_id", cert.CertificateID, "content_hash", cert.ContentHash)

	return web.Respond(ctx, w, certificateResponse{Certificate: cert}, http.StatusOK)
}

// VerifyCertificate checks a certificate offline. A certificate that fails
// the checks is reported in the response, not as a request error.
func (h Handlers) VerifyCertificate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var cert proof.Certificate
	if err := web.Decode(r, &cert); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := verifyResponse{
		CertificateID: cert.CertificateID,
		Valid:         true,
	}

	if err := proof.VerifyCertificate(cert); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// notFound maps a missing content hash to a 404.
func notFound(err error, op string) error {
	if errors.Is(err, state.ErrNotFound) {
		return v1.NewRequestError(errors.New("content hash not found in the chain"), http.StatusNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
