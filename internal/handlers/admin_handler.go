package handlers

import (
	"io"
	"math"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const maxImageSize = 5 << 20

// AdminHandler serves the admin panel. Routes sit behind the route guard and
// AdminRequired.
type AdminHandler struct {
	admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.admin.Dashboard(c.UserContext())
	if err != nil {
		return serviceError(c, err, "admin_dashboard")
	}
	return c.JSON(stats)
}

// ListProducts pages with limit and offset; walk offsets to see every product.
func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	q := repository.ProductQuery{
		Search: c.Query("q"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}.Normalize()

	products, err := h.admin.ListProducts(c.UserContext(), q)
	if err != nil {
		return serviceError(c, err, "admin_product_list")
	}
	return c.JSON(dto.ProductListResponse{Products: products, Limit: q.Limit, Offset: q.Offset})
}

func (h *AdminHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return serviceError(c, err, "admin_product_get")
	}
	product, err := h.admin.GetProduct(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "admin_product_get")
	}
	return c.JSON(product)
}

// CreateProduct takes a multipart form: name, description, price, image.
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	in, err := productForm(c, true)
	if err != nil {
		return serviceError(c, err, "product_create")
	}
	defer closeImage(in)
	product, err := h.admin.CreateProduct(c.UserContext(), *in)
	if err != nil {
		return serviceError(c, err, "product_create")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct replaces the product; the image is replaced only when sent.
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return serviceError(c, err, "product_update")
	}
	in, err := productForm(c, false)
	if err != nil {
		return serviceError(c, err, "product_update")
	}
	defer closeImage(in)
	product, err := h.admin.UpdateProduct(c.UserContext(), id, *in)
	if err != nil {
		return serviceError(c, err, "product_update")
	}
	return c.JSON(product)
}

func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"))
	if err != nil {
		return serviceError(c, err, "product_delete")
	}
	if err := h.admin.DeleteProduct(c.UserContext(), id); err != nil {
		return serviceError(c, err, "product_delete")
	}
	return c.JSON(dto.MessageResponse{Message: "Product deleted"})
}

func productForm(c *fiber.Ctx, imageRequired bool) (*services.ProductInput, error) {
	price, err := parsePriceCents(c.FormValue("price"))
	if err != nil {
		return nil, err
	}
	in := &services.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		PriceCents:  price,
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if imageRequired {
			return nil, &services.ValidationError{Field: "image", Message: "image is required"}
		}
		return in, nil
	}
	img, err := openImage(fh)
	if err != nil {
		return nil, err
	}
	in.Image = img
	return in, nil
}

func openImage(fh *multipart.FileHeader) (*services.ImageUpload, error) {
	if fh.Size > maxImageSize {
		return nil, &services.ValidationError{Field: "image", Message: "image must be at most 5 MB"}
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, &services.ValidationError{Field: "image", Message: "file must be an image"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return &services.ImageUpload{Filename: fh.Filename, Body: f}, nil
}

func closeImage(in *services.ProductInput) {
	if in.Image == nil {
		return
	}
	if closer, ok := in.Image.Body.(io.Closer); ok {
		closer.Close()
	}
}

// maxPrice bounds the decimal price so the cents conversion cannot overflow.
const maxPrice = 1_000_000

// parsePriceCents reads a decimal price such as "12.50" as cents.
func parsePriceCents(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &services.ValidationError{Field: "price", Message: "price is required"}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &services.ValidationError{Field: "price", Message: "price must be a number"}
	}
	if f > maxPrice {
		return 0, &services.ValidationError{Field: "price", Message: "price must be at most 1000000.00"}
	}
	return int64(math.Round(f * 100)), nil
}
