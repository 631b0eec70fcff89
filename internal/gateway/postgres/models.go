// internal/gateway/postgres/models.go
package postgres

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/session"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"gorm.io/gorm"
)

// User is an account of the storefront
type User struct {
	ID               string         `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash     string         `gorm:"not null;size:255" json:"-"`
	FullName         string         `gorm:"size:255" json:"full_name"`
	Phone            string         `gorm:"size:20" json:"phone"`
	AvatarURL        string         `gorm:"size:500" json:"avatar_url"`
	Role             string         `gorm:"not null;size:20;default:'customer'" json:"role"`
	EmailConfirmed   bool           `gorm:"default:false" json:"email_confirmed"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Category groups products
type Category struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	ImageURL    string         `gorm:"size:500" json:"image_url"`
	ParentID    *string        `gorm:"type:uuid;index" json:"parent_id"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product is a catalog product
type Product struct {
	ID               string           `gorm:"type:uuid;primaryKey" json:"id"`
	SKU              string           `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name             string           `gorm:"not null;size:255" json:"name"`
	Slug             string           `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description      string           `gorm:"type:text" json:"description"`
	ShortDescription string           `gorm:"size:500" json:"short_description"`
	Price            decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"price"`
	ComparePrice     *decimal.Decimal `gorm:"type:numeric(12,2)" json:"compare_price"`
	CategoryID       string           `gorm:"type:uuid;not null;index" json:"category_id"`
	Brand            string           `gorm:"size:100;index" json:"brand"`
	TrackQuantity    bool             `gorm:"default:true" json:"track_quantity"`
	Quantity         int              `gorm:"default:0" json:"quantity"`
	Tags             string           `gorm:"size:500" json:"tags"` // Comma-separated tags
	IsActive         bool             `gorm:"default:true" json:"is_active"`
	IsFeatured       bool             `gorm:"default:false" json:"is_featured"`
	Rating           float64          `gorm:"default:0" json:"rating"`
	ReviewCount      int              `gorm:"default:0" json:"review_count"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Category Category         `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Images   []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProductImage is one gallery image
type ProductImage struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string    `gorm:"type:uuid;not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductVariant is a purchasable variation of a product
type ProductVariant struct {
	ID           string           `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID    string           `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU          string           `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name         string           `gorm:"not null;size:255" json:"name"`
	Price        decimal.Decimal  `gorm:"type:numeric(12,2);default:0" json:"price"` // Overrides product price when non-zero
	ComparePrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"compare_price"`
	Quantity     int              `gorm:"default:0" json:"quantity"`
	Options      string           `gorm:"type:text" json:"options"` // JSON string for variant options
	IsActive     bool             `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// CartItem is one persisted cart line
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID string    `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID *string   `gorm:"type:uuid;index" json:"variant_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User    User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Product Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"product"`
	Variant *ProductVariant `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE;" json:"variant,omitempty"`
}

// WishlistItem is one persisted wishlist line
type WishlistItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"product"`
}

// Review is a customer's rating of a product; one per user and product
type Review struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID          string    `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user" json:"product_id"`
	UserID             string    `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user;index" json:"user_id"`
	Rating             int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Title              string    `gorm:"size:255" json:"title"`
	Comment            string    `gorm:"type:text" json:"comment"`
	IsVerifiedPurchase bool      `gorm:"default:false" json:"is_verified_purchase"`
	HelpfulCount       int       `gorm:"default:0" json:"helpful_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user"`
	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"-"`
}

// Address is embedded twice into Order
type Address struct {
	FullName     string `gorm:"size:255"`
	Phone        string `gorm:"size:20"`
	AddressLine1 string `gorm:"size:255"`
	AddressLine2 string `gorm:"size:255"`
	City         string `gorm:"size:100"`
	State        string `gorm:"size:100"`
	PostalCode   string `gorm:"size:20"`
	Country      string `gorm:"size:100"`
}

// Order is a placed order
type Order struct {
	ID             string          `gorm:"type:uuid;primaryKey"`
	UserID         string          `gorm:"type:uuid;not null;index"`
	OrderNumber    string          `gorm:"uniqueIndex;not null;size:50"`
	Status         string          `gorm:"not null;size:30;default:'pending'"`
	PaymentStatus  string          `gorm:"not null;size:30;default:'pending'"`
	PaymentMethod  string          `gorm:"size:20"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2);default:0"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency       string          `gorm:"size:3;default:'INR'"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_"`

	TrackingNumber string `gorm:"size:100"`
	Notes          string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;"`
}

// OrderItem is one purchased line
type OrderItem struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	OrderID     string          `gorm:"type:uuid;not null;index"`
	ProductID   string          `gorm:"type:uuid;not null;index"`
	VariantID   *string         `gorm:"type:uuid"`
	Name        string          `gorm:"not null;size:255"`
	VariantName string          `gorm:"size:255"`
	SKU         string          `gorm:"size:100"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time
}

// TableName overrides
func (User) TableName() string           { return "users" }
func (Category) TableName() string       { return "categories" }
func (Product) TableName() string        { return "products" }
func (ProductImage) TableName() string   { return "product_images" }
func (ProductVariant) TableName() string { return "product_variants" }
func (CartItem) TableName() string       { return "cart_items" }
func (WishlistItem) TableName() string   { return "wishlist_items" }
func (Review) TableName() string         { return "reviews" }
func (Order) TableName() string          { return "orders" }
func (OrderItem) TableName() string      { return "order_items" }

// Models lists every table in migration order
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Product{},
		&ProductImage{},
		&ProductVariant{},
		&CartItem{},
		&WishlistItem{},
		&Review{},
		&Order{},
		&OrderItem{},
	}
}

// UUID primary keys are assigned client-side
func (u *User) BeforeCreate(*gorm.DB) error           { u.ID = ensureID(u.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error       { c.ID = ensureID(c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error        { p.ID = ensureID(p.ID); return nil }
func (i *ProductImage) BeforeCreate(*gorm.DB) error   { i.ID = ensureID(i.ID); return nil }
func (v *ProductVariant) BeforeCreate(*gorm.DB) error { v.ID = ensureID(v.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error       { c.ID = ensureID(c.ID); return nil }
func (w *WishlistItem) BeforeCreate(*gorm.DB) error   { w.ID = ensureID(w.ID); return nil }
func (r *Review) BeforeCreate(*gorm.DB) error         { r.ID = ensureID(r.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error          { o.ID = ensureID(o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error      { i.ID = ensureID(i.ID); return nil }

func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// Conversions to the domain shapes

func (u *User) toRaw() *session.RawUser {
	metadata := map[string]string{
		"full_name": u.FullName,
		"role":      u.Role,
	}
	if u.Phone != "" {
		metadata["phone"] = u.Phone
	}
	if u.AvatarURL != "" {
		metadata["avatar_url"] = u.AvatarURL
	}

	updatedAt := u.UpdatedAt
	return &session.RawUser{
		ID:        u.ID,
		Email:     u.Email,
		Metadata:  metadata,
		CreatedAt: u.CreatedAt,
		UpdatedAt: &updatedAt,
	}
}

func (c *Category) toCatalog() catalog.Category {
	category := catalog.Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
	}
	if c.ParentID != nil {
		category.ParentID = *c.ParentID
	}
	return category
}

func (p *Product) toCatalog() *catalog.Product {
	product := &catalog.Product{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		SKU:              p.SKU,
		Price:            p.Price,
		ComparePrice:     p.ComparePrice,
		TrackQuantity:    p.TrackQuantity,
		Quantity:         p.Quantity,
		CategoryID:       p.CategoryID,
		Brand:            p.Brand,
		Tags:             splitTags(p.Tags),
		IsActive:         p.IsActive,
		IsFeatured:       p.IsFeatured,
		Rating:           p.Rating,
		ReviewCount:      p.ReviewCount,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}

	for _, img := range p.Images {
		product.Images = append(product.Images, catalog.ProductImage{
			ID:        img.ID,
			ProductID: img.ProductID,
			URL:       img.URL,
			AltText:   img.AltText,
			SortOrder: img.SortOrder,
		})
	}
	for i := range p.Variants {
		product.Variants = append(product.Variants, *p.Variants[i].toCatalog())
	}
	if p.Category.ID != "" {
		category := p.Category.toCatalog()
		product.Category = &category
	}
	return product
}

func (v *ProductVariant) toCatalog() *catalog.ProductVariant {
	variant := &catalog.ProductVariant{
		ID:           v.ID,
		ProductID:    v.ProductID,
		Name:         v.Name,
		SKU:          v.SKU,
		Price:        v.Price,
		ComparePrice: v.ComparePrice,
		Quantity:     v.Quantity,
		Options:      map[string]string{},
	}
	if v.Options != "" {
		// Malformed options are shown as none
		_ = json.Unmarshal([]byte(v.Options), &variant.Options)
	}
	return variant
}

func (c *CartItem) toLine() cart.Line {
	line := cart.Line{
		ID:        c.ID,
		UserID:    c.UserID,
		ProductID: c.ProductID,
		VariantID: c.VariantID,
		Quantity:  c.Quantity,
		CreatedAt: c.CreatedAt,
	}
	if c.Product.ID != "" {
		line.Product = c.Product.toCatalog()
	}
	if c.Variant != nil {
		line.Variant = c.Variant.toCatalog()
	}
	return line
}

func (w *WishlistItem) toLine() wishlist.Line {
	line := wishlist.Line{
		ID:        w.ID,
		UserID:    w.UserID,
		ProductID: w.ProductID,
		CreatedAt: w.CreatedAt,
	}
	if w.Product.ID != "" {
		line.Product = w.Product.toCatalog()
	}
	return line
}

func (r *Review) toCatalog() catalog.Review {
	review := catalog.Review{
		ID:                 r.ID,
		ProductID:          r.ProductID,
		UserID:             r.UserID,
		Rating:             r.Rating,
		Title:              r.Title,
		Comment:            r.Comment,
		IsVerifiedPurchase: r.IsVerifiedPurchase,
		HelpfulCount:       r.HelpfulCount,
		CreatedAt:          r.CreatedAt,
	}
	if r.User.ID != "" {
		review.Reviewer = &catalog.Reviewer{FullName: r.User.FullName, AvatarURL: r.User.AvatarURL}
	}
	return review
}

func orderFromDomain(o *checkout.Order) *Order {
	order := &Order{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal,
		TaxAmount:       o.TaxAmount,
		ShippingAmount:  o.ShippingAmount,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		ShippingAddress: Address(o.ShippingAddress),
		BillingAddress:  Address(o.BillingAddress),
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		order.Items = append(order.Items, OrderItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Name:        item.Name,
			VariantName: item.VariantName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		})
	}
	return order
}

func (o *Order) toDomain() *checkout.Order {
	order := &checkout.Order{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		Status:          checkout.OrderStatus(o.Status),
		PaymentStatus:   checkout.PaymentStatus(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal,
		TaxAmount:       o.TaxAmount,
		ShippingAmount:  o.ShippingAmount,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		ShippingAddress: checkoutAddress(o.ShippingAddress),
		BillingAddress:  checkoutAddress(o.BillingAddress),
		Items:           make([]checkout.OrderItem, 0, len(o.Items)),
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		order.Items = append(order.Items, checkout.OrderItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Name:        item.Name,
			VariantName: item.VariantName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Total:       item.Total,
		})
	}
	return order
}

func checkoutAddress(a Address) checkout.Address {
	return checkout.Address(a)
}

func splitTags(tags string) []string {
	result := []string{}
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			result = append(result, tag)
		}
	}
	return result
}
