// Package orderrepo persists order aggregates and their status history with GORM.
package orderrepo

import (
	"time"

	"orderbot/internal/core/domain/model/order"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The flow id is unique so that a repeated confirmation cannot insert twice.
type OrderDTO struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement"`
	FlowID             string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	UserID             string    `gorm:"type:varchar(64);index;not null"`
	Locale             string    `gorm:"type:varchar(8);not null"`
	ContactName        string    `gorm:"type:varchar(200);not null"`
	Phone              string    `gorm:"type:varchar(16);not null"`
	Locality           string    `gorm:"type:varchar(200);not null"`
	RequestedItem      string    `gorm:"type:varchar(200);not null"`
	SizeDescriptor     string    `gorm:"type:varchar(64);not null"`
	Comment            string    `gorm:"type:varchar(500)"`
	Status             int       `gorm:"index;not null"`
	CreatedAt          time.Time `gorm:"index;not null"`
	LastStatusChangeAt time.Time `gorm:"not null"`
	LastReminderAt     *time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

// StatusChangeDTO is one row of the append-only status history.
type StatusChangeDTO struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID    uint64    `gorm:"index;not null"`
	FromStatus int       `gorm:"not null"`
	ToStatus   int       `gorm:"not null"`
	Actor      string    `gorm:"type:varchar(64);not null"`
	At         time.Time `gorm:"not null"`
}

func (StatusChangeDTO) TableName() string {
	return "order_status_history"
}

// Models lists the tables owned by this package, for migrations.
func Models() []any {
	return []any{&OrderDTO{}, &StatusChangeDTO{}}
}

// Times are stored in UTC so range filters compare the same way on every driver.
func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()
	var reminded *time.Time
	if s.LastReminderAt != nil {
		t := s.LastReminderAt.UTC()
		reminded = &t
	}

	return OrderDTO{
		ID:                 s.ID,
		FlowID:             s.FlowID,
		UserID:             s.UserID,
		Locale:             s.Locale,
		ContactName:        s.ContactName,
		Phone:              s.Phone,
		Locality:           s.Locality,
		RequestedItem:      s.RequestedItem,
		SizeDescriptor:     s.SizeDescriptor,
		Comment:            s.Comment,
		Status:             int(s.Status),
		CreatedAt:          s.CreatedAt.UTC(),
		LastStatusChangeAt: s.LastStatusChangeAt.UTC(),
		LastReminderAt:     reminded,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	return order.RestoreOrder(order.Snapshot{
		ID:                 dto.ID,
		FlowID:             dto.FlowID,
		UserID:             dto.UserID,
		Locale:             dto.Locale,
		ContactName:        dto.ContactName,
		Phone:              dto.Phone,
		Locality:           dto.Locality,
		RequestedItem:      dto.RequestedItem,
		SizeDescriptor:     dto.SizeDescriptor,
		Comment:            dto.Comment,
		Status:             order.Status(dto.Status),
		CreatedAt:          dto.CreatedAt,
		LastStatusChangeAt: dto.LastStatusChangeAt,
		LastReminderAt:     dto.LastReminderAt,
	})
}

func toDomainList(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func changeFromDTO(dto StatusChangeDTO) order.StatusChange {
	return order.StatusChange{
		OrderID: dto.OrderID,
		From:    order.Status(dto.FromStatus),
		To:      order.Status(dto.ToStatus),
		Actor:   dto.Actor,
		At:      dto.At,
	}
}

func changeToDTO(c order.StatusChange) StatusChangeDTO {
	return StatusChangeDTO{
		OrderID:    c.OrderID,
		FromStatus: int(c.From),
		ToStatus:   int(c.To),
		Actor:      c.Actor,
		At:         c.At.UTC(),
	}
}
