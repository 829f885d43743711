package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of every repository, used by
// tests and local runs without PostgreSQL. It enforces the same unique keys
// as the schema. Set Err to make every call fail.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*models.User
	identities map[string]*models.LinkedIdentity
	products   map[uuid.UUID]*models.Product
	cart       map[string]*models.CartItem
	wishlist   map[string]*models.WishlistItem
	ratings    map[string]*models.Rating

	// Err, when set, is returned by every operation.
	Err error
	now func() time.Time
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uuid.UUID]*models.User),
		identities: make(map[string]*models.LinkedIdentity),
		products:   make(map[uuid.UUID]*models.Product),
		cart:       make(map[string]*models.CartItem),
		wishlist:   make(map[string]*models.WishlistItem),
		ratings:    make(map[string]*models.Rating),
		now:        time.Now,
	}
}

func (s *MemoryStore) Users() UserRepository          { return memoryUsers{s} }
func (s *MemoryStore) Identities() IdentityRepository { return memoryIdentities{s} }
func (s *MemoryStore) Products() ProductRepository    { return memoryProducts{s} }
func (s *MemoryStore) Cart() CartRepository           { return memoryCart{s} }
func (s *MemoryStore) Wishlist() WishlistRepository   { return memoryWishlist{s} }
func (s *MemoryStore) Ratings() RatingRepository      { return memoryRatings{s} }

// SetError makes every subsequent call fail with err until cleared with nil.
func (s *MemoryStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (s *MemoryStore) tick() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Microsecond)
}

func pairKey(a, b interface{}) string {
	return fmt.Sprintf("%v|%v", a, b)
}

func (s *MemoryStore) fail(op string) error {
	if s.Err != nil {
		return fmt.Errorf("%s: %w", op, s.Err)
	}
	return nil
}

// =============================================================================
// Users
// =============================================================================

type memoryUsers struct{ s *MemoryStore }

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("find user"); err != nil {
		return nil, err
	}
	u, ok := m.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return copyUser(u), nil
}

func (m memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("find user by email"); err != nil {
		return nil, err
	}
	if u := m.s.userByEmail(email); u != nil {
		return copyUser(u), nil
	}
	return nil, fmt.Errorf("user by email: %w", ErrNotFound)
}

func (m memoryUsers) FindByResetToken(_ context.Context, token string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("find user by reset token"); err != nil {
		return nil, err
	}
	for _, u := range m.s.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user by reset token: %w", ErrNotFound)
}

func (s *MemoryStore) userByEmail(email string) *models.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *MemoryStore) insertUser(user *models.User) error {
	if s.userByEmail(user.Email) != nil {
		return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = auth.RoleStandard
	}
	now := s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = copyUser(user)
	return nil
}

func (m memoryUsers) Create(_ context.Context, user *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("create user"); err != nil {
		return err
	}
	return m.s.insertUser(user)
}

func (m memoryUsers) CreateWithIdentity(_ context.Context, user *models.User, identity *models.LinkedIdentity) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("create federated user"); err != nil {
		return err
	}
	if _, taken := m.s.identities[pairKey(identity.Provider, identity.ProviderAccountID)]; taken {
		return fmt.Errorf("identity %s: %w", identity.Provider, ErrDuplicate)
	}
	if err := m.s.insertUser(user); err != nil {
		return err
	}
	identity.UserID = user.ID
	m.s.insertIdentity(identity)
	return nil
}

func (m memoryUsers) UpdateProfile(_ context.Context, id uuid.UUID, update ProfileUpdate) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("update profile"); err != nil {
		return err
	}
	u, ok := m.s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if update.Name != "" {
		u.Name = update.Name
	}
	if update.AvatarURL != "" {
		u.AvatarURL = update.AvatarURL
	}
	if update.EmailVerifiedAt != nil && u.EmailVerifiedAt == nil {
		t := *update.EmailVerifiedAt
		u.EmailVerifiedAt = &t
	}
	u.UpdatedAt = m.s.tick()
	return nil
}

func (m memoryUsers) SetResetToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("store reset token"); err != nil {
		return err
	}
	u, ok := m.s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	for _, other := range m.s.users {
		if other.ID != id && other.ResetToken != nil && *other.ResetToken == token {
			return fmt.Errorf("reset token: %w", ErrDuplicate)
		}
	}
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (m memoryUsers) ConsumeResetToken(_ context.Context, id uuid.UUID, token, passwordHash string, now time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("consume reset token"); err != nil {
		return false, err
	}
	u, ok := m.s.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return false, nil
	}
	if u.ResetTokenExpiresAt == nil || u.ResetTokenExpiresAt.Before(now) {
		return false, nil
	}
	u.PasswordHash = &passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
	return true, nil
}

func (m memoryUsers) Count(_ context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("count users"); err != nil {
		return 0, err
	}
	return int64(len(m.s.users)), nil
}

// =============================================================================
// Linked identities
// =============================================================================

type memoryIdentities struct{ s *MemoryStore }

func (s *MemoryStore) insertIdentity(identity *models.LinkedIdentity) {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	now := s.tick()
	identity.CreatedAt, identity.UpdatedAt = now, now
	c := *identity
	s.identities[pairKey(identity.Provider, identity.ProviderAccountID)] = &c
}

func (m memoryIdentities) FindByProviderAccount(_ context.Context, provider, accountID string) (*models.LinkedIdentity, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("find identity"); err != nil {
		return nil, err
	}
	li, ok := m.s.identities[pairKey(provider, accountID)]
	if !ok {
		return nil, fmt.Errorf("%s identity: %w", provider, ErrNotFound)
	}
	c := *li
	return &c, nil
}

func (m memoryIdentities) Upsert(_ context.Context, identity *models.LinkedIdentity) (*models.LinkedIdentity, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("link identity"); err != nil {
		return nil, err
	}

	key := pairKey(identity.Provider, identity.ProviderAccountID)
	stored, ok := m.s.identities[key]
	if !ok {
		m.s.insertIdentity(identity)
		c := *m.s.identities[key]
		return &c, nil
	}

	if stored.UserID == identity.UserID {
		keep := func(dst *string, src string) {
			if src != "" {
				*dst = src
			}
		}
		keep(&stored.AccessToken, identity.AccessToken)
		keep(&stored.RefreshToken, identity.RefreshToken)
		keep(&stored.IDToken, identity.IDToken)
		keep(&stored.TokenType, identity.TokenType)
		keep(&stored.Scope, identity.Scope)
		if identity.ExpiresAt != nil {
			t := *identity.ExpiresAt
			stored.ExpiresAt = &t
		}
		stored.UpdatedAt = m.s.tick()
	}
	c := *stored
	return &c, nil
}

// =============================================================================
// Products
// =============================================================================

type memoryProducts struct{ s *MemoryStore }

func copyProduct(p *models.Product) *models.Product {
	c := *p
	c.Ratings = nil
	return &c
}

func (m memoryProducts) List(_ context.Context, q ProductQuery) ([]models.Product, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("list products"); err != nil {
		return nil, err
	}
	q = q.Normalize()

	all := make([]models.Product, 0, len(m.s.products))
	needle := strings.ToLower(q.Search)
	for _, p := range m.s.products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		all = append(all, *copyProduct(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if q.Offset >= len(all) {
		return []models.Product{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Offset:end], nil
}

func (m memoryProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("find product"); err != nil {
		return nil, err
	}
	p, ok := m.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return copyProduct(p), nil
}

func (m memoryProducts) Create(_ context.Context, product *models.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("create product"); err != nil {
		return err
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := m.s.tick()
	product.CreatedAt, product.UpdatedAt = now, now
	m.s.products[product.ID] = copyProduct(product)
	return nil
}

func (m memoryProducts) Update(_ context.Context, product *models.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("update product"); err != nil {
		return err
	}
	stored, ok := m.s.products[product.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", product.ID, ErrNotFound)
	}
	product.CreatedAt = stored.CreatedAt
	product.UpdatedAt = m.s.tick()
	m.s.products[product.ID] = copyProduct(product)
	return nil
}

func (m memoryProducts) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("delete product"); err != nil {
		return err
	}
	if _, ok := m.s.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(m.s.products, id)
	// ON DELETE CASCADE
	for k, it := range m.s.cart {
		if it.ProductID == id {
			delete(m.s.cart, k)
		}
	}
	for k, it := range m.s.wishlist {
		if it.ProductID == id {
			delete(m.s.wishlist, k)
		}
	}
	for k, r := range m.s.ratings {
		if r.ProductID == id {
			delete(m.s.ratings, k)
		}
	}
	return nil
}

func (m memoryProducts) Count(_ context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("count products"); err != nil {
		return 0, err
	}
	return int64(len(m.s.products)), nil
}

// =============================================================================
// Cart
// =============================================================================

type memoryCart struct{ s *MemoryStore }

func (s *MemoryStore) cartView(it *models.CartItem) *models.CartItem {
	c := *it
	if p, ok := s.products[it.ProductID]; ok {
		c.Product = copyProduct(p)
	}
	return &c
}

func (m memoryCart) AddItem(_ context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("add cart item"); err != nil {
		return nil, err
	}
	if _, ok := m.s.products[productID]; !ok {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}

	key := pairKey(userID, productID)
	now := m.s.tick()
	if it, ok := m.s.cart[key]; ok {
		it.Quantity = min(it.Quantity+quantity, MaxCartQuantity)
		it.UpdatedAt = now
		return m.s.cartView(it), nil
	}
	it := &models.CartItem{ID: uuid.New(), UserID: userID, ProductID: productID, Quantity: quantity, CreatedAt: now, UpdatedAt: now}
	m.s.cart[key] = it
	return m.s.cartView(it), nil
}

func (m memoryCart) SetQuantity(_ context.Context, userID, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("update cart item"); err != nil {
		return nil, err
	}
	it, ok := m.s.cart[pairKey(userID, productID)]
	if !ok {
		return nil, fmt.Errorf("cart item: %w", ErrNotFound)
	}
	it.Quantity = quantity
	it.UpdatedAt = m.s.tick()
	return m.s.cartView(it), nil
}

func (m memoryCart) RemoveItem(_ context.Context, userID, productID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("remove cart item"); err != nil {
		return err
	}
	key := pairKey(userID, productID)
	if _, ok := m.s.cart[key]; !ok {
		return fmt.Errorf("cart item: %w", ErrNotFound)
	}
	delete(m.s.cart, key)
	return nil
}

func (m memoryCart) ListItems(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("list cart"); err != nil {
		return nil, err
	}
	items := []models.CartItem{}
	for _, it := range m.s.cart {
		if it.UserID == userID {
			items = append(items, *m.s.cartView(it))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

// =============================================================================
// Wishlist
// =============================================================================

type memoryWishlist struct{ s *MemoryStore }

func (s *MemoryStore) wishlistView(it *models.WishlistItem) *models.WishlistItem {
	c := *it
	if p, ok := s.products[it.ProductID]; ok {
		c.Product = copyProduct(p)
	}
	return &c
}

func (m memoryWishlist) Add(_ context.Context, userID, productID uuid.UUID) (*models.WishlistItem, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("add wishlist item"); err != nil {
		return nil, false, err
	}
	if _, ok := m.s.products[productID]; !ok {
		return nil, false, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	key := pairKey(userID, productID)
	if it, ok := m.s.wishlist[key]; ok {
		return m.s.wishlistView(it), false, nil
	}
	it := &models.WishlistItem{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: m.s.tick()}
	m.s.wishlist[key] = it
	return m.s.wishlistView(it), true, nil
}

func (m memoryWishlist) Remove(_ context.Context, userID, productID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("remove wishlist item"); err != nil {
		return err
	}
	key := pairKey(userID, productID)
	if _, ok := m.s.wishlist[key]; !ok {
		return fmt.Errorf("wishlist item: %w", ErrNotFound)
	}
	delete(m.s.wishlist, key)
	return nil
}

func (m memoryWishlist) ListItems(_ context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("list wishlist"); err != nil {
		return nil, err
	}
	items := []models.WishlistItem{}
	for _, it := range m.s.wishlist {
		if it.UserID == userID {
			items = append(items, *m.s.wishlistView(it))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// =============================================================================
// Ratings
// =============================================================================

type memoryRatings struct{ s *MemoryStore }

func (s *MemoryStore) ratingView(r *models.Rating) *models.Rating {
	c := *r
	if u, ok := s.users[r.UserID]; ok {
		c.User = &models.RatingUser{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
	}
	return &c
}

func (m memoryRatings) Upsert(_ context.Context, rating *models.Rating) (*models.Rating, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.fail("save rating"); err != nil {
		return nil, err
	}
	if _, ok := m.s.products[rating.ProductID]; !ok {
		return nil, fmt.Errorf("product %s: %w", rating.ProductID, ErrNotFound)
	}

	key := pairKey(rating.UserID, rating.ProductID)
	now := m.s.tick()
	if stored, ok := m.s.ratings[key]; ok {
		stored.Value = rating.Value
		stored.Comment = rating.Comment
		stored.UpdatedAt = now
		return m.s.ratingView(stored), nil
	}
	r := &models.Rating{
		ID: uuid.New(), UserID: rating.UserID, ProductID: rating.ProductID,
		Value: rating.Value, Comment: rating.Comment, CreatedAt: now, UpdatedAt: now,
	}
	m.s.ratings[key] = r
	return m.s.ratingView(r), nil
}

func (m memoryRatings) ListForProduct(_ context.Context, productID uuid.UUID) ([]models.Rating, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("list ratings"); err != nil {
		return nil, err
	}
	out := []models.Rating{}
	for _, r := range m.s.ratings {
		if r.ProductID == productID {
			out = append(out, *m.s.ratingView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memoryRatings) Summary(_ context.Context, productID uuid.UUID) (RatingSummary, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("summarize ratings"); err != nil {
		return RatingSummary{}, err
	}
	var sum RatingSummary
	total := 0
	for _, r := range m.s.ratings {
		if r.ProductID == productID {
			sum.Count++
			total += r.Value
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}

func (m memoryRatings) Count(_ context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.fail("count ratings"); err != nil {
		return 0, err
	}
	return int64(len(m.s.ratings)), nil
}
