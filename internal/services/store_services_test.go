package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/imagehost"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/security"
	"github.com/google/uuid"
)

// =============================================================================
// Cart
// =============================================================================

func TestCartService_AddMergesLines(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCartService(store.Cart(), store.Products())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	product := seedProduct(t, store, "Mug", 1250)
	ctx := context.Background()

	if _, err := svc.Add(ctx, user.ID, product.ID, 0); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	item, err := svc.Add(ctx, user.ID, product.ID, 2)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", item.Quantity)
	}

	items, _ := svc.Items(ctx, user.ID)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Product == nil || items[0].Product.Name != "Mug" {
		t.Errorf("item product = %+v", items[0].Product)
	}
}

func TestCartService_AddNeverExceedsCap(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCartService(store.Cart(), store.Products())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	product := seedProduct(t, store, "Mug", 1250)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Add(ctx, user.ID, product.ID, MaxCartQuantity); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	items, _ := svc.Items(ctx, user.ID)
	if len(items) != 1 || items[0].Quantity != MaxCartQuantity {
		t.Fatalf("items = %+v, want one line of %d", items, MaxCartQuantity)
	}
	if _, err := svc.SetQuantity(ctx, user.ID, product.ID, items[0].Quantity); err != nil {
		t.Errorf("SetQuantity(%d) error = %v", items[0].Quantity, err)
	}
}

func TestCartService_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCartService(store.Cart(), store.Products())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	product := seedProduct(t, store, "Mug", 1250)
	ctx := context.Background()

	for _, q := range []int{-1, MaxCartQuantity + 1} {
		if _, err := svc.Add(ctx, user.ID, product.ID, q); !IsValidation(err) {
			t.Errorf("Add(quantity=%d) error = %v, want validation", q, err)
		}
	}
	if _, err := svc.SetQuantity(ctx, user.ID, product.ID, 0); !IsValidation(err) {
		t.Errorf("SetQuantity(0) error = %v, want validation", err)
	}
	if _, err := svc.Add(ctx, user.ID, uuid.New(), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Add(unknown product) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.SetQuantity(ctx, user.ID, product.ID, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetQuantity(missing line) error = %v, want ErrNotFound", err)
	}
	if err := svc.Remove(ctx, user.ID, product.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(missing line) error = %v, want ErrNotFound", err)
	}
}

func TestCartService_SetQuantityAndRemove(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCartService(store.Cart(), store.Products())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	product := seedProduct(t, store, "Mug", 1250)
	ctx := context.Background()

	if _, err := svc.Add(ctx, user.ID, product.ID, 5); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	item, err := svc.SetQuantity(ctx, user.ID, product.ID, 2)
	if err != nil || item.Quantity != 2 {
		t.Fatalf("SetQuantity() = %+v, %v", item, err)
	}
	if err := svc.Remove(ctx, user.ID, product.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if items, _ := svc.Items(ctx, user.ID); len(items) != 0 {
		t.Errorf("cart should be empty, got %d items", len(items))
	}
}

// =============================================================================
// Wishlist
// =============================================================================

func TestWishlistService_AddIsIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewWishlistService(store.Wishlist(), store.Products())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	product := seedProduct(t, store, "Mug", 1250)
	ctx := context.Background()

	first, err := svc.Add(ctx, user.ID, product.ID)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	second, err := svc.Add(ctx, user.ID, product.ID)
	if err != nil {
		t.Fatalf("Add() again error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second Add() created a new entry")
	}
	if items, _ := svc.Items(ctx, user.ID); len(items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(items))
	}

	if err := svc.Remove(ctx, user.ID, product.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := svc.Remove(ctx, user.ID, product.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() again error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Add(ctx, user.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Add(unknown product) error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// Ratings and catalog
// =============================================================================

func TestRatingService_RateReplacesAndSanitizes(t *testing.T) {
	store := repository.NewMemoryStore()
	ratings := NewRatingService(store.Ratings(), store.Products(), security.NewSanitizer())
	catalog := NewCatalogService(store.Products(), store.Ratings())
	alice := seedUser(t, store, "alice@example.com", "", auth.RoleStandard)
	bob := seedUser(t, store, "bob@example.com", "", auth.RoleStandard)
	product := seedProduct(t, store, "Mug", 1250)
	ctx := context.Background()

	r, err := ratings.Rate(ctx, alice.ID, RatingInput{ProductID: product.ID, Value: 2, Comment: `<script>alert(1)</script>Too <b>small</b>`})
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if r.Comment != "Too small" {
		t.Errorf("Comment = %q, want markup stripped", r.Comment)
	}
	if _, err := ratings.Rate(ctx, alice.ID, RatingInput{ProductID: product.ID, Value: 4}); err != nil {
		t.Fatalf("Rate() again error = %v", err)
	}
	if _, err := ratings.Rate(ctx, bob.ID, RatingInput{ProductID: product.ID, Value: 5}); err != nil {
		t.Fatalf("Rate() bob error = %v", err)
	}

	detail, err := catalog.Detail(ctx, product.ID)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if detail.RatingCount != 2 {
		t.Errorf("RatingCount = %d, want 2", detail.RatingCount)
	}
	if detail.AverageRating != 4.5 {
		t.Errorf("AverageRating = %v, want 4.5", detail.AverageRating)
	}
	if len(detail.Ratings) != 2 || detail.Ratings[0].User == nil {
		t.Errorf("Ratings = %+v", detail.Ratings)
	}
}

func TestRatingService_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewRatingService(store.Ratings(), store.Products(), security.NewSanitizer())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	product := seedProduct(t, store, "Mug", 1250)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RatingInput
	}{
		{"zero", RatingInput{ProductID: product.ID, Value: 0}},
		{"six", RatingInput{ProductID: product.ID, Value: 6}},
		{"long comment", RatingInput{ProductID: product.ID, Value: 3, Comment: strings.Repeat("x", maxCommentLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Rate(ctx, user.ID, tt.in); !IsValidation(err) {
				t.Errorf("Rate() error = %v, want validation", err)
			}
		})
	}

	if _, err := svc.Rate(ctx, user.ID, RatingInput{ProductID: uuid.New(), Value: 3}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rate(unknown product) error = %v, want ErrNotFound", err)
	}
}

func TestCatalogService_DetailNotFound(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewCatalogService(store.Products(), store.Ratings())

	if _, err := svc.Detail(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Detail() error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// Checkout
// =============================================================================

func TestCheckoutService_Summary(t *testing.T) {
	store := repository.NewMemoryStore()
	cart := NewCartService(store.Cart(), store.Products())
	checkout := NewCheckoutService(store.Cart())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	mug := seedProduct(t, store, "Mug", 1250)
	tea := seedProduct(t, store, "Tea", 499)
	ctx := context.Background()

	if _, err := cart.Add(ctx, user.ID, mug.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := cart.Add(ctx, user.ID, tea.ID, 3); err != nil {
		t.Fatal(err)
	}

	summary, err := checkout.Summary(ctx, user.ID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.ItemCount != 5 {
		t.Errorf("ItemCount = %d, want 5", summary.ItemCount)
	}
	if summary.SubtotalCents != 2*1250+3*499 {
		t.Errorf("SubtotalCents = %d, want %d", summary.SubtotalCents, 2*1250+3*499)
	}

	empty, err := checkout.Summary(ctx, uuid.New())
	if err != nil || empty.ItemCount != 0 || empty.SubtotalCents != 0 {
		t.Errorf("empty Summary() = %+v, %v", empty, err)
	}
}

// =============================================================================
// Admin
// =============================================================================

func newTestAdminService(store *repository.MemoryStore, images imagehost.Host) *AdminService {
	return NewAdminService(store.Products(), store.Users(), store.Ratings(), images, security.NewSanitizer())
}

func TestAdminService_ProductLifecycle(t *testing.T) {
	store := repository.NewMemoryStore()
	images := imagehost.NewMemory()
	svc := newTestAdminService(store, images)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, ProductInput{
		Name:        "  Mug  ",
		Description: `<p>Big</p><script>alert(1)</script>`,
		PriceCents:  1250,
		Image:       &ImageUpload{Filename: "mug.png", Body: strings.NewReader("png-bytes")},
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if created.Name != "Mug" {
		t.Errorf("Name = %q, want trimmed", created.Name)
	}
	if created.Description != "<p>Big</p>" {
		t.Errorf("Description = %q, want sanitized", created.Description)
	}
	firstImage := created.ImagePublicID
	if _, ok := images.Images[firstImage]; !ok || created.ImageURL == "" {
		t.Fatalf("image not uploaded: %+v", created)
	}

	updated, err := svc.UpdateProduct(ctx, created.ID, ProductInput{
		Name:       "Mug XL",
		PriceCents: 1500,
		Image:      &ImageUpload{Filename: "mug2.png", Body: strings.NewReader("png-2")},
	})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if updated.ImagePublicID == firstImage {
		t.Error("image should be replaced")
	}
	if _, ok := images.Images[firstImage]; ok {
		t.Error("old image should be destroyed")
	}

	// Updating without a new image keeps the current one.
	kept, err := svc.UpdateProduct(ctx, created.ID, ProductInput{Name: "Mug XL", PriceCents: 1600})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if kept.ImagePublicID != updated.ImagePublicID {
		t.Errorf("ImagePublicID = %q, want %q", kept.ImagePublicID, updated.ImagePublicID)
	}

	if err := svc.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if len(images.Images) != 0 {
		t.Errorf("images left behind: %v", images.Images)
	}
	if _, err := svc.GetProduct(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct() after delete error = %v, want ErrNotFound", err)
	}
}

func TestAdminService_ListProductsPages(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAdminService(store, imagehost.NewMemory())
	ctx := context.Background()
	for _, name := range []string{"Mug", "Cap", "Tee"} {
		seedProduct(t, store, name, 1000)
	}

	first, err := svc.ListProducts(ctx, repository.ProductQuery{Limit: 2})
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	rest, err := svc.ListProducts(ctx, repository.ProductQuery{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if len(first) != 2 || len(rest) != 1 {
		t.Fatalf("pages = %d + %d, want 2 + 1", len(first), len(rest))
	}
	if first[0].Name != "Tee" || rest[0].Name != "Mug" {
		t.Errorf("order = %q..%q, want newest first", first[0].Name, rest[0].Name)
	}
}

func TestAdminService_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAdminService(store, imagehost.NewMemory())
	ctx := context.Background()

	tests := []struct {
		name string
		in   ProductInput
	}{
		{"blank name", ProductInput{Name: "   ", PriceCents: 100}},
		{"long name", ProductInput{Name: strings.Repeat("n", 256), PriceCents: 100}},
		{"zero price", ProductInput{Name: "Mug", PriceCents: 0}},
		{"negative price", ProductInput{Name: "Mug", PriceCents: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateProduct(ctx, tt.in); !IsValidation(err) {
				t.Errorf("CreateProduct() error = %v, want validation", err)
			}
		})
	}

	if _, err := svc.UpdateProduct(ctx, uuid.New(), ProductInput{Name: "Mug", PriceCents: 100}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProduct(unknown) error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteProduct(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProduct(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestAdminService_UploadWithoutImageHost(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAdminService(store, imagehost.Unconfigured{})

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Name: "Mug", PriceCents: 100,
		Image: &ImageUpload{Filename: "mug.png", Body: strings.NewReader("x")},
	})
	if !errors.Is(err, imagehost.ErrNotConfigured) {
		t.Errorf("CreateProduct() error = %v, want ErrNotConfigured", err)
	}

	if _, err := svc.CreateProduct(context.Background(), ProductInput{Name: "Mug", PriceCents: 100}); err != nil {
		t.Errorf("CreateProduct() without image error = %v", err)
	}
}

func TestAdminService_Dashboard(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestAdminService(store, imagehost.NewMemory())
	ratings := NewRatingService(store.Ratings(), store.Products(), security.NewSanitizer())
	user := seedUser(t, store, "a@example.com", "", auth.RoleStandard)
	seedUser(t, store, "admin@example.com", "", auth.RoleAdmin)
	product := seedProduct(t, store, "Mug", 1250)
	seedProduct(t, store, "Tea", 499)
	ctx := context.Background()

	if _, err := ratings.Rate(ctx, user.ID, RatingInput{ProductID: product.ID, Value: 5}); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if stats.Products != 2 || stats.Users != 2 || stats.Ratings != 1 {
		t.Errorf("Dashboard() = %+v, want 2/2/1", stats)
	}

	store.SetError(errors.New("db down"))
	if _, err := svc.Dashboard(ctx); err == nil {
		t.Error("Dashboard() should fail when the store fails")
	}
}
