// Package api exposes the engine operations over a JSON HTTP interface. It is
// a thin adapter: every business rule lives in the engine, and signed bids
// cross the wire in the base64 handoff form produced by the encoding package.
//
// Caller identities are taken from the request body. Authenticating that a
// request really originates from the named address is a deployment concern
// (mTLS, signed requests, a gateway) outside this package.
package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	rfq "github.com/rfqlabs/rfq-go"
	"github.com/rfqlabs/rfq-go/encoding"
	"github.com/rfqlabs/rfq-go/engine"
	"github.com/rfqlabs/rfq-go/logger"
)

// Server is an http.Handler serving the RFQ operations.
type Server struct {
	engine *engine.Engine
	router chi.Router
}

// New builds the route table over the given engine.
func New(e *engine.Engine) *Server {
	s := &Server{engine: e}

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Post("/offers", s.createOffer)
	r.Get("/offers/{id}", s.getOffer)
	r.Post("/offers/{id}/settle", s.settleOffer)
	r.Post("/delegations", s.delegate)
	r.Post("/bids/check", s.checkBid)
	r.Post("/bids/signer", s.getBidSigner)
	r.Get("/nonces/{address}", s.nonces)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type createOfferRequest struct {
	Seller             string `json:"seller"`
	OfferToken         string `json:"offerToken"`
	BidToken           string `json:"bidToken"`
	MinPrice           string `json:"minPrice"`
	MinBidSize         string `json:"minBidSize"`
	TotalSize          string `json:"totalSize"`
	OfferTokenDecimals uint8  `json:"offerTokenDecimals"`
}

type createOfferResponse struct {
	OfferID uint64 `json:"offerId"`
}

func (s *Server) createOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	seller, err := parseAddress(req.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	offerToken, err := parseAddress(req.OfferToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bidToken, err := parseAddress(req.BidToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	minPrice, err := parseAmount(req.MinPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	minBidSize, err := parseAmount(req.MinBidSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	totalSize, err := parseAmount(req.TotalSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.engine.CreateOffer(r.Context(), seller, &rfq.Offer{
		OfferToken:         offerToken,
		BidToken:           bidToken,
		MinPrice:           minPrice,
		MinBidSize:         minBidSize,
		TotalSize:          totalSize,
		OfferTokenDecimals: req.OfferTokenDecimals,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOfferResponse{OfferID: id})
}

func (s *Server) getOffer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	offer, err := s.engine.GetOfferDetails(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

type delegateRequest struct {
	Bidder    string `json:"bidder"`
	NewSigner string `json:"newSigner"`
}

func (s *Server) delegate(w http.ResponseWriter, r *http.Request) {
	var req delegateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bidder, err := parseAddress(req.Bidder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	newSigner, err := parseAddress(req.NewSigner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.engine.DelegateToSigner(r.Context(), bidder, newSigner); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settleRequest struct {
	Caller string `json:"caller"`
	Bid    string `json:"bid"` // base64 signed-bid blob
}

func (s *Server) settleOffer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bid, err := encoding.DecodeBid(req.Bid)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.engine.SettleOffer(r.Context(), caller, id, bid); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bidRequest struct {
	Bid string `json:"bid"` // base64 signed-bid blob
}

type checkBidResponse struct {
	ErrorCount int                 `json:"errorCount"`
	Errors     []rfq.ViolationCode `json:"errors"`
}

func (s *Server) checkBid(w http.ResponseWriter, r *http.Request) {
	bid, ok := s.decodeBidRequest(w, r)
	if !ok {
		return
	}

	violations, err := s.engine.CheckBid(r.Context(), bid)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkBidResponse{
		ErrorCount: len(violations),
		Errors:     violations,
	})
}

type bidSignerResponse struct {
	Signer string `json:"signer"`
}

func (s *Server) getBidSigner(w http.ResponseWriter, r *http.Request) {
	bid, ok := s.decodeBidRequest(w, r)
	if !ok {
		return
	}

	signer, err := s.engine.GetBidSigner(r.Context(), bid)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bidSignerResponse{Signer: signer.Hex()})
}

type nonceResponse struct {
	Nonce uint64 `json:"nonce"`
}

func (s *Server) nonces(w http.ResponseWriter, r *http.Request) {
	signer, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	nonce, err := s.engine.Nonces(r.Context(), signer)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonceResponse{Nonce: nonce})
}

func (s *Server) decodeBidRequest(w http.ResponseWriter, r *http.Request) (*rfq.Bid, bool) {
	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	bid, err := encoding.DecodeBid(req.Bid)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return bid, true
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.New("invalid address: " + s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("invalid amount: " + s)
	}
	return v, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rfq.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, rfq.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, rfq.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, rfq.ErrInconsistentOffer),
		errors.Is(err, rfq.ErrInvalidDelegate),
		errors.Is(err, rfq.ErrInvalidSignature),
		errors.Is(err, rfq.ErrTransferFailed):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response: %v", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s (%v)", r.Method, r.URL.Path, time.Since(start))
	})
}
