// Package gatewaytest provides an in-memory gateway for store and handler
// tests. It implements every consumer-side gateway interface.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/gateway"
)

var (
	_ session.Gateway      = (*Fake)(nil)
	_ cart.Gateway         = (*Fake)(nil)
	_ wishlist.Gateway     = (*Fake)(nil)
	_ checkout.Gateway     = (*Fake)(nil)
	_ catalog.Gateway      = (*Fake)(nil)
	_ catalog.ReviewWriter = (*Fake)(nil)
)

type account struct {
	user     session.RawUser
	password string
}

// Fake is an in-memory gateway. The zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	accounts   map[string]*account
	current    *session.RawUser
	products   map[string]catalog.Product
	categories []catalog.Category
	cartLines  []cart.Line
	wishlist   []wishlist.Line
	orders     []checkout.Order
	reviews    []catalog.Review
	resets     []string

	failures map[string]error
	calls    map[string]int
	seq      int
	clock    time.Time

	// NilUser makes VerifyCredentials succeed without returning a user
	NilUser bool
}

// New creates an empty fake gateway
func New() *Fake {
	return &Fake{
		accounts: make(map[string]*account),
		products: make(map[string]catalog.Product),
		failures: make(map[string]error),
		calls:    make(map[string]int),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Fail makes every later call to op return err
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Recover clears an injected failure
func (f *Fake) Recover(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, op)
}

// Calls returns how many times op was called
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// AddUser registers an account
func (f *Fake) AddUser(id, email, password string, metadata map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = &account{
		user:     session.RawUser{ID: id, Email: email, Metadata: metadata, CreatedAt: f.tick()},
		password: password,
	}
}

// SignInAs makes the account for email the gateway's current session user
func (f *Fake) SignInAs(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.accounts[email]; ok {
		user := acc.user
		f.current = &user
	}
}

// AddProduct adds a product to the catalog
func (f *Fake) AddProduct(p catalog.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = f.tick()
	}
	f.products[p.ID] = p
}

// AddCategory adds a category
func (f *Fake) AddCategory(c catalog.Category) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = append(f.categories, c)
}

// CartRows returns the gateway-side cart rows for identityID
func (f *Fake) CartRows(identityID string) []cart.Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]cart.Line, 0)
	for _, line := range f.cartLines {
		if line.UserID == identityID {
			rows = append(rows, line)
		}
	}
	return rows
}

// ResetRequests returns the emails a password reset was requested for
func (f *Fake) ResetRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.resets...)
}

func (f *Fake) called(op string) error {
	f.calls[op]++
	return f.failures[op]
}

func (f *Fake) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

// VerifyCredentials implements session.Gateway
func (f *Fake) VerifyCredentials(_ context.Context, email, password string) (*session.RawUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("VerifyCredentials"); err != nil {
		return nil, err
	}

	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return nil, gateway.NewError(gateway.CodeInvalidCredentials, "Invalid login credentials")
	}
	if f.NilUser {
		return nil, nil
	}
	user := acc.user
	f.current = &user
	return &user, nil
}

// CreateAccount implements session.Gateway
func (f *Fake) CreateAccount(_ context.Context, email, password string, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("CreateAccount"); err != nil {
		return err
	}

	if _, exists := f.accounts[email]; exists {
		return gateway.NewError(gateway.CodeUserExists, "User already registered")
	}
	f.accounts[email] = &account{
		user:     session.RawUser{ID: f.nextID("user"), Email: email, Metadata: metadata, CreatedAt: f.tick()},
		password: password,
	}
	return nil
}

// TerminateSession implements session.Gateway
func (f *Fake) TerminateSession(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("TerminateSession"); err != nil {
		return err
	}
	f.current = nil
	return nil
}

// RequestPasswordReset implements session.Gateway
func (f *Fake) RequestPasswordReset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("RequestPasswordReset"); err != nil {
		return err
	}
	f.resets = append(f.resets, email)
	return nil
}

// ResumeSession implements session.Gateway
func (f *Fake) ResumeSession(_ context.Context) (*session.RawUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("ResumeSession"); err != nil {
		return nil, err
	}
	if f.current == nil {
		return nil, nil
	}
	user := *f.current
	return &user, nil
}

// ListCartLines implements cart.Gateway
func (f *Fake) ListCartLines(_ context.Context, identityID string) ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("ListCartLines"); err != nil {
		return nil, err
	}

	lines := make([]cart.Line, 0)
	for _, line := range f.cartLines {
		if line.UserID != identityID {
			continue
		}
		if p, ok := f.products[line.ProductID]; ok {
			product := p
			line.Product = &product
			if line.VariantID != nil {
				for _, v := range p.Variants {
					if v.ID == *line.VariantID {
						variant := v
						line.Variant = &variant
					}
				}
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// UpsertCartLine implements cart.Gateway
func (f *Fake) UpsertCartLine(_ context.Context, identityID, productID string, variantID *string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("UpsertCartLine"); err != nil {
		return err
	}

	if _, ok := f.products[productID]; !ok {
		return gateway.NewError(gateway.CodeNotFound, "Product not found")
	}

	for i, line := range f.cartLines {
		if line.UserID == identityID && line.ProductID == productID && sameVariant(line.VariantID, variantID) {
			f.cartLines[i].Quantity += quantity
			return nil
		}
	}

	f.cartLines = append(f.cartLines, cart.Line{
		ID:        f.nextID("cart"),
		UserID:    identityID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		CreatedAt: f.tick(),
	})
	return nil
}

// UpdateCartLineQuantity implements cart.Gateway
func (f *Fake) UpdateCartLineQuantity(_ context.Context, lineID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("UpdateCartLineQuantity"); err != nil {
		return err
	}

	for i, line := range f.cartLines {
		if line.ID == lineID {
			f.cartLines[i].Quantity = quantity
			return nil
		}
	}
	return gateway.NewError(gateway.CodeNotFound, "Cart item not found")
}

// DeleteCartLine implements cart.Gateway
func (f *Fake) DeleteCartLine(_ context.Context, lineID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("DeleteCartLine"); err != nil {
		return err
	}

	lines := f.cartLines[:0]
	for _, line := range f.cartLines {
		if line.ID != lineID {
			lines = append(lines, line)
		}
	}
	f.cartLines = lines
	return nil
}

// DeleteCartLines implements checkout.Gateway
func (f *Fake) DeleteCartLines(_ context.Context, identityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("DeleteCartLines"); err != nil {
		return err
	}

	lines := f.cartLines[:0]
	for _, line := range f.cartLines {
		if line.UserID != identityID {
			lines = append(lines, line)
		}
	}
	f.cartLines = lines
	return nil
}

// ListWishlistLines implements wishlist.Gateway
func (f *Fake) ListWishlistLines(_ context.Context, identityID string) ([]wishlist.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("ListWishlistLines"); err != nil {
		return nil, err
	}

	lines := make([]wishlist.Line, 0)
	for _, line := range f.wishlist {
		if line.UserID != identityID {
			continue
		}
		if p, ok := f.products[line.ProductID]; ok {
			product := p
			line.Product = &product
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// InsertWishlistLine implements wishlist.Gateway
func (f *Fake) InsertWishlistLine(_ context.Context, identityID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("InsertWishlistLine"); err != nil {
		return err
	}

	for _, line := range f.wishlist {
		if line.UserID == identityID && line.ProductID == productID {
			return gateway.NewError(gateway.CodeConflict, "Product already in wishlist")
		}
	}
	f.wishlist = append(f.wishlist, wishlist.Line{
		ID:        f.nextID("wish"),
		UserID:    identityID,
		ProductID: productID,
		CreatedAt: f.tick(),
	})
	return nil
}

// DeleteWishlistLine implements wishlist.Gateway
func (f *Fake) DeleteWishlistLine(_ context.Context, identityID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("DeleteWishlistLine"); err != nil {
		return err
	}

	lines := f.wishlist[:0]
	for _, line := range f.wishlist {
		if line.UserID != identityID || line.ProductID != productID {
			lines = append(lines, line)
		}
	}
	f.wishlist = lines
	return nil
}

// CreateOrder implements checkout.Gateway
func (f *Fake) CreateOrder(_ context.Context, order *checkout.Order) (*checkout.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("CreateOrder"); err != nil {
		return nil, err
	}

	created := *order
	created.ID = f.nextID("order")
	created.Items = make([]checkout.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.ID = f.nextID("item")
		item.OrderID = created.ID
		created.Items[i] = item
	}
	f.orders = append(f.orders, created)
	return &created, nil
}

// ListOrders implements checkout.Gateway
func (f *Fake) ListOrders(_ context.Context, identityID string) ([]checkout.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("ListOrders"); err != nil {
		return nil, err
	}

	orders := make([]checkout.Order, 0)
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == identityID {
			orders = append(orders, f.orders[i])
		}
	}
	return orders, nil
}

// GetOrder implements checkout.Gateway
func (f *Fake) GetOrder(_ context.Context, identityID, orderID string) (*checkout.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("GetOrder"); err != nil {
		return nil, err
	}

	for _, order := range f.orders {
		if order.ID == orderID && order.UserID == identityID {
			o := order
			return &o, nil
		}
	}
	return nil, gateway.NewError(gateway.CodeNotFound, "Order not found")
}

// ListProducts implements catalog.Gateway
func (f *Fake) ListProducts(_ context.Context, filters catalog.Filters) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("ListProducts"); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(f.products))
	for _, p := range f.products {
		if !p.IsActive {
			continue
		}
		if filters.Category != "" && p.CategoryID != filters.Category && (p.Category == nil || p.Category.Slug != filters.Category) {
			continue
		}
		if filters.Brand != "" && p.Brand != filters.Brand {
			continue
		}
		if filters.MinPrice != nil && p.Price.LessThan(*filters.MinPrice) {
			continue
		}
		if filters.MaxPrice != nil && p.Price.GreaterThan(*filters.MaxPrice) {
			continue
		}
		if filters.Rating > 0 && p.Rating < filters.Rating {
			continue
		}
		if filters.InStock && !p.InStock() {
			continue
		}
		products = append(products, p)
	}

	sort.SliceStable(products, func(i, j int) bool {
		switch filters.SortBy {
		case catalog.SortPriceAsc:
			return products[i].Price.LessThan(products[j].Price)
		case catalog.SortPriceDesc:
			return products[i].Price.GreaterThan(products[j].Price)
		case catalog.SortRating:
			return products[i].Rating > products[j].Rating
		default:
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
	})
	return products, nil
}

// GetProductBySlug implements catalog.Gateway
func (f *Fake) GetProductBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("GetProductBySlug"); err != nil {
		return nil, err
	}

	for _, p := range f.products {
		if p.Slug == slug && p.IsActive {
			product := p
			return &product, nil
		}
	}
	return nil, gateway.NewError(gateway.CodeNotFound, "Product not found")
}

// ListCategories implements catalog.Gateway
func (f *Fake) ListCategories(_ context.Context) ([]catalog.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("ListCategories"); err != nil {
		return nil, err
	}

	categories := make([]catalog.Category, 0, len(f.categories))
	for _, c := range f.categories {
		if c.IsActive {
			categories = append(categories, c)
		}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].SortOrder < categories[j].SortOrder
	})
	return categories, nil
}

// ListProductReviews implements catalog.Gateway
func (f *Fake) ListProductReviews(_ context.Context, productID string) ([]catalog.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("ListProductReviews"); err != nil {
		return nil, err
	}

	reviews := make([]catalog.Review, 0)
	for _, r := range f.reviews {
		if r.ProductID == productID {
			reviews = append(reviews, r)
		}
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

// AddReview implements catalog.ReviewWriter. The product's rating and
// review count are recomputed like the real gateway does.
func (f *Fake) AddReview(_ context.Context, identityID string, review *catalog.Review) (*catalog.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("AddReview"); err != nil {
		return nil, err
	}

	product, ok := f.products[review.ProductID]
	if !ok || !product.IsActive {
		return nil, gateway.NewError(gateway.CodeNotFound, "Product not found")
	}
	for _, r := range f.reviews {
		if r.ProductID == review.ProductID && r.UserID == identityID {
			return nil, gateway.NewError(gateway.CodeConflict, "You have already reviewed this product")
		}
	}

	stored := *review
	stored.ID = f.nextID("review")
	stored.UserID = identityID
	stored.CreatedAt = f.tick()
	for _, acc := range f.accounts {
		if acc.user.ID == identityID {
			stored.Reviewer = &catalog.Reviewer{FullName: acc.user.Metadata["full_name"]}
		}
	}
	for _, order := range f.orders {
		if order.UserID != identityID {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == review.ProductID {
				stored.IsVerifiedPurchase = true
			}
		}
	}
	f.reviews = append(f.reviews, stored)

	var all []catalog.Review
	for _, r := range f.reviews {
		if r.ProductID == review.ProductID {
			all = append(all, r)
		}
	}
	summary := catalog.Summarize(all)
	product.Rating = summary.AverageRating
	product.ReviewCount = summary.TotalReviews
	f.products[product.ID] = product

	return &stored, nil
}

func sameVariant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
