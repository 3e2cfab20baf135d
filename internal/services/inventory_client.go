package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
)

// InventoryClient calls the external inventory system's deduct_stock
// endpoint. Every caller treats failures as degraded-but-continue.
type InventoryClient struct {
	baseURL string
	client  *http.Client
}

// NewInventoryClient constructs InventoryClient.
func NewInventoryClient(baseURL string) *InventoryClient {
	return &InventoryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type deductStockItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type deductStockRequest struct {
	OrderID string            `json:"order_id"`
	Items   []deductStockItem `json:"items"`
}

// DeductStock posts the deducted quantities for an order.
func (c *InventoryClient) DeductStock(ctx context.Context, items []models.OrderItem, orderID uuid.UUID) error {
	payload := deductStockRequest{OrderID: orderID.String()}
	for _, item := range items {
		if item.ProductVariantID == nil {
			continue
		}
		payload.Items = append(payload.Items, deductStockItem{
			VariantID: item.ProductVariantID.String(),
			Quantity:  item.Quantity,
		})
	}
	if len(payload.Items) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/deduct_stock", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inventory service returned status %d", resp.StatusCode)
	}
	return nil
}
