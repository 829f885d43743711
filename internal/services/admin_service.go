package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/imagehost"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/security"
	"github.com/google/uuid"
)

// ImageUpload is an image file attached to a product form.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

type ProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	Image       *ImageUpload
}

type DashboardStats struct {
	Products int64 `json:"products"`
	Users    int64 `json:"users"`
	Ratings  int64 `json:"ratings"`
}

// AdminService backs the admin panel. Callers must already have checked the
// admin role; the handlers do so on every request.
type AdminService struct {
	products  repository.ProductRepository
	users     repository.UserRepository
	ratings   repository.RatingRepository
	images    imagehost.Host
	sanitizer *security.Sanitizer
}

func NewAdminService(
	products repository.ProductRepository,
	users repository.UserRepository,
	ratings repository.RatingRepository,
	images imagehost.Host,
	sanitizer *security.Sanitizer,
) *AdminService {
	return &AdminService{products: products, users: users, ratings: ratings, images: images, sanitizer: sanitizer}
}

func (s *AdminService) validate(in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "name is required")
	}
	if utf8.RuneCountInString(in.Name) > 255 {
		return invalid("name", "name must be at most 255 characters")
	}
	if in.PriceCents <= 0 {
		return invalid("price", "price must be greater than zero")
	}
	in.Description = s.sanitizer.RichText(in.Description)
	return nil
}

// ListProducts pages through every product, newest first.
func (s *AdminService) ListProducts(ctx context.Context, q repository.ProductQuery) ([]models.Product, error) {
	return s.products.List(ctx, q.Normalize())
}

func (s *AdminService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return findProduct(ctx, s.products, id)
}

func (s *AdminService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
	}
	if in.Image != nil {
		img, err := s.images.Upload(ctx, in.Image.Body, in.Image.Filename)
		if err != nil {
			return nil, err
		}
		product.ImageURL, product.ImagePublicID = img.URL, img.PublicID
	}

	if err := s.products.Create(ctx, product); err != nil {
		s.discardImage(ctx, product.ImagePublicID)
		return nil, err
	}
	slog.Info("product created", "action", "product_create", "product_id", product.ID.String())
	return product, nil
}

// UpdateProduct replaces the product fields. A new image replaces the old
// one, which is destroyed only after the row is saved.
func (s *AdminService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	product, err := findProduct(ctx, s.products, id)
	if err != nil {
		return nil, err
	}

	oldPublicID := ""
	product.Name, product.Description, product.PriceCents = in.Name, in.Description, in.PriceCents
	if in.Image != nil {
		img, err := s.images.Upload(ctx, in.Image.Body, in.Image.Filename)
		if err != nil {
			return nil, err
		}
		oldPublicID = product.ImagePublicID
		product.ImageURL, product.ImagePublicID = img.URL, img.PublicID
	}

	if err := s.products.Update(ctx, product); err != nil {
		if in.Image != nil {
			s.discardImage(ctx, product.ImagePublicID)
		}
		return nil, notFoundAs(err, ErrNotFound)
	}
	s.discardImage(ctx, oldPublicID)

	slog.Info("product updated", "action", "product_update", "product_id", product.ID.String())
	return product, nil
}

// DeleteProduct destroys the hosted image, then the row.
func (s *AdminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := findProduct(ctx, s.products, id)
	if err != nil {
		return err
	}
	if err := s.images.Destroy(ctx, product.ImagePublicID); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return notFoundAs(err, ErrNotFound)
	}
	slog.Info("product deleted", "action", "product_delete", "product_id", id.String())
	return nil
}

func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	var err error
	if stats.Products, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Ratings, err = s.ratings.Count(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *AdminService) discardImage(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.images.Destroy(ctx, publicID); err != nil {
		slog.Error("failed to destroy orphaned image", "action", "image_destroy", "public_id", publicID, "error", err)
	}
}
