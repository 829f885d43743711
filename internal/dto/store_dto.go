package dto

import "github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"

type CartAddRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

type WishlistAddRequest struct {
	ProductID string `json:"product_id"`
}

type RatingRequest struct {
	ProductID string `json:"product_id"`
	Value     int    `json:"value"`
	Comment   string `json:"comment"`
}

type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type ProductDetailResponse struct {
	Product       *models.Product `json:"product"`
	Ratings       []models.Rating `json:"ratings"`
	AverageRating float64         `json:"average_rating"`
	RatingCount   int64           `json:"rating_count"`
}

type CartResponse struct {
	Items []models.CartItem `json:"items"`
}

type WishlistResponse struct {
	Items []models.WishlistItem `json:"items"`
}

type CheckoutResponse struct {
	Items         []models.CartItem `json:"items"`
	ItemCount     int               `json:"item_count"`
	SubtotalCents int64             `json:"subtotal_cents"`
}
