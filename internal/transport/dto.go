package transport

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

// CheckoutItem carries the product reference as either product or
// productId; product wins when both are set.
type CheckoutItem struct {
	Product   string `json:"product"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     Number `json:"price"`
	Quantity  Number `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Image     string `json:"image"`
}

type CheckoutRequest struct {
	CustomerInfo    CustomerInfo    `json:"customerInfo"`
	Items           []CheckoutItem  `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Subtotal        Number          `json:"subtotal"`
	Shipping        Number          `json:"shipping"`
	Tax             Number          `json:"tax"`
	Discount        Number          `json:"discount"`
	Total           Number          `json:"total"`
	Notes           string          `json:"notes"`

	TypeErrors []TypeError `json:"-"`
}

type StatusUpdateRequest struct {
	Status         string  `json:"status"`
	Note           string  `json:"note"`
	TrackingNumber *string `json:"trackingNumber"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ImageRequest struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

type CreateProductRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         *float64       `json:"price"`
	OriginalPrice *float64       `json:"originalPrice"`
	Category      string         `json:"category"`
	Section       string         `json:"section"`
	StockBySize   map[string]int `json:"stockBySize"`
	Images        []ImageRequest `json:"images"`
}

type PatchProductRequest struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	Price         *float64        `json:"price"`
	OriginalPrice *float64        `json:"originalPrice"`
	Category      *string         `json:"category"`
	Section       *string         `json:"section"`
	IsActive      *bool           `json:"isActive"`
	StockBySize   map[string]int  `json:"stockBySize"`
	Images        *[]ImageRequest `json:"images"`
}

type AddCartItemRequest struct {
	Product   string `json:"product"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type UserStatusRequest struct {
	IsActive *bool `json:"isActive"`
}
