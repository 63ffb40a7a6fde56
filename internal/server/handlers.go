package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/types"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTriggerBuild runs the daily plan build synchronously. No parameters,
// no payload.
func (s *Server) handleTriggerBuild(w http.ResponseWriter, _ *http.Request) {
	s.triggers.RunBuild()
	w.WriteHeader(http.StatusNoContent)
}

// handleTriggerScrape runs one batch invocation synchronously.
func (s *Server) handleTriggerScrape(w http.ResponseWriter, _ *http.Request) {
	s.triggers.RunScrape()
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateReceipt ingests a cleaned (discount-netted) receipt: new items
// join the catalog with an unresolved profile, known items keep whichever
// trade is newest, and every line becomes a subscription.
func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var receipt types.Receipt
	if err := json.NewDecoder(r.Body).Decode(&receipt); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid data format")
		return
	}
	if err := s.validate.Struct(receipt); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid data format")
		return
	}

	ctx := r.Context()
	for _, line := range receipt.Items {
		if err := s.ingestLine(ctx, receipt, line); err != nil {
			s.logger.Error("failed to ingest receipt item",
				zap.String("item_id", line.ItemID), zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	s.logger.Info("receipt ingested",
		zap.String("receipt_id", receipt.ReceiptID),
		zap.Int("items", len(receipt.Items)))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) ingestLine(ctx context.Context, receipt types.Receipt, line types.ReceiptItem) error {
	price := parsePrice(line.Price)

	exists, err := s.store.HasItem(ctx, line.ItemID)
	if err != nil {
		return err
	}

	if !exists {
		if err := s.store.CreateItem(ctx, types.CatalogItem{
			ItemID:        line.ItemID,
			Name:          line.Name,
			LatestPrice:   price,
			TradeDatetime: receipt.TradeDatetime,
		}); err != nil {
			return err
		}
	} else {
		item, err := s.store.GetProfile(ctx, line.ItemID)
		if err != nil {
			return err
		}
		switch {
		case item == nil || newerTrade(receipt.TradeDatetime, item.TradeDatetime):
			if err := s.store.SetLatestPrice(ctx, line.ItemID, line.Name, price, receipt.TradeDatetime); err != nil {
				return err
			}
		case price != nil && item.LatestPrice != nil && *price > *item.LatestPrice:
			// Bought above the tracked price; the next scrape cycle will
			// surface the drop to this subscriber.
			s.logger.Info("purchase above tracked price",
				zap.String("item_id", line.ItemID),
				zap.Float64("paid", *price),
				zap.Float64("tracked", *item.LatestPrice))
		}
	}

	return s.store.AddSubscription(ctx, types.Subscription{
		MemberID:      receipt.MemberID,
		ReceiptID:     receipt.ReceiptID,
		ItemID:        line.ItemID,
		Name:          line.Name,
		Price:         line.Price,
		TradeDatetime: receipt.TradeDatetime,
	})
}

// newerTrade reports whether an incoming trade timestamp is strictly newer than
// the stored one. Unparseable stored values lose; unparseable incoming values
// never win.
func newerTrade(incoming, stored string) bool {
	in, err := time.Parse(time.RFC3339, incoming)
	if err != nil {
		return false
	}
	old, err := time.Parse(time.RFC3339, stored)
	if err != nil {
		return true
	}
	return in.After(old)
}

func parsePrice(text string) *float64 {
	price, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &price
}
