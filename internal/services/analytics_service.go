package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// AnalyticsService posts storefront events to the analytics collector.
// Fire-and-forget: every caller ignores failures.
type AnalyticsService struct {
	endpoint string
	client   *http.Client
}

// NewAnalyticsService constructs AnalyticsService.
func NewAnalyticsService(endpoint string) *AnalyticsService {
	return &AnalyticsService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// AnalyticsEvent is one recorded storefront event.
type AnalyticsEvent struct {
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

// Record sends one event. Returns nil when no collector is configured.
func (s *AnalyticsService) Record(event AnalyticsEvent) error {
	if s.endpoint == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Analytics] Failed to record %s: %v", event.EventType, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Analytics] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("analytics returned status %d", resp.StatusCode)
	}
	return nil
}
