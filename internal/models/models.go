package models

import "time"

// Field names follow the wire format of the backing REST API (camelCase,
// json-server style). The same structs back the mock API's tables, hence
// the gorm tags; embedded product snapshots are stored as JSON blobs.

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

type Product struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string            `gorm:"not null"                 json:"name"`
	Description string            `json:"description"`
	Price       float64           `gorm:"not null"                 json:"price"`
	Category    string            `gorm:"index"                    json:"category"`
	Rating      float64           `json:"rating"`
	Stock       int               `json:"stock"`
	Image       string            `json:"image"`
	Specs       map[string]string `gorm:"serializer:json"          json:"specs,omitempty"`
}

type CartItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64   `gorm:"index;not null"           json:"userId"`
	ProductID int64   `gorm:"not null"                 json:"productId"`
	Product   Product `gorm:"serializer:json"          json:"product"`
	Quantity  int     `gorm:"not null;default:1"       json:"quantity"`
}

type FavouriteItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64   `gorm:"index;not null"           json:"userId"`
	ProductID int64   `gorm:"not null"                 json:"productId"`
	Product   Product `gorm:"serializer:json"          json:"product"`
	// IsTemp marks a client-side optimistic item whose create call has not
	// resolved yet. Never persisted by the server.
	IsTemp bool `gorm:"-" json:"isTemp,omitempty"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductID int64   `json:"productId"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"index;not null"           json:"userId"`
	Items  []OrderItem `gorm:"serializer:json"          json:"items"`
	Total  float64     `json:"total"`
	Date   time.Time   `json:"date"`
	Status OrderStatus `gorm:"not null"                 json:"status"`
}

type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;not null"           json:"userId"`
	ProductID int64     `gorm:"index;not null"           json:"productId"`
	UserName  string    `json:"userName"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Comment   string    `json:"comment"`
	Date      time.Time `json:"date"`
}
