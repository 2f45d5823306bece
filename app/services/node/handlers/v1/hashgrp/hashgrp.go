// Package hashgrp maintains the group of handlers for fingerprinting content.
package hashgrp

import (
	"context"
	"errors"
	"net/http"

	v1 "github.com/contentledger/notary/business/web/v1"
	"github.com/contentledger/notary/foundation/blockchain/fingerprint"
	"github.com/contentledger/notary/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of fingerprint endpoints.
type Handlers struct {
	Log *zap.SugaredLogger
}

// Hash returns the fingerprint of the content under the requested algorithm.
func (h Handlers) Hash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req hashRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	alg, err := parseAlgorithm(req.Algorithm)
	if err != nil {
		return err
	}

	hash, err := fingerprint.Generate([]byte(req.Content), alg)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := hashResponse{
		ContentHash:   hash,
		Algorithm:     string(alg),
		ContentLength: len(req.Content),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Batch returns the fingerprints and merkle root of a batch of content.
func (h Handlers) Batch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req batchRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := batchResponse{
		BatchHash: fingerprint.GenerateBatch(req.ContentList),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Verify checks content against a claimed fingerprint.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req verifyRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	alg, err := parseAlgorithm(req.Algorithm)
	if err != nil {
		return err
	}

	calculated, err := fingerprint.Generate([]byte(req.Content), alg)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := verifyResponse{
		IntegrityValid: fingerprint.VerifyIntegrity([]byte(req.Content), req.Hash, alg),
		ProvidedHash:   req.Hash,
		CalculatedHash: calculated,
		Algorithm:      string(alg),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

func parseAlgorithm(name string) (fingerprint.Algorithm, error) {
	alg, err := fingerprint.ParseAlgorithm(name)
	if err != nil {
		if errors.Is(err, fingerprint.ErrUnsupportedAlgorithm) {
			return "", v1.NewRequestError(err, http.StatusBadRequest)
		}
		return "", err
	}

	return alg, nil
}
