package entities

import "fmt"

type Status string

// remember to add new statuses to the validStatuses map
const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// DefaultStatus is assigned to every new order.
const DefaultStatus = StatusPending

var validStatuses = map[Status]struct{}{
	StatusPending:   {},
	StatusDelivered: {},
	StatusCancelled: {},
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validStatuses[status]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

func (s Status) String() string {
	return string(s)
}
