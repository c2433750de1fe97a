package customer

import (
	"math"
	"time"
)

const (
	// A customer may hold aggregate credit up to 36x their monthly salary.
	approvedLimitMultiplier = 36.0

	// Limits are rounded to the nearest 100,000 currency units.
	approvedLimitGranularity = 100_000.0

	MinimumAge = 18
)

type Customer struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	Age           int
	PhoneNumber   string
	MonthlySalary float64
	ApprovedLimit float64
	CurrentDebt   float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewCustomer(firstName, lastName string, age int, monthlySalary float64, phoneNumber string) *Customer {
	now := time.Now()
	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		Age:           age,
		PhoneNumber:   phoneNumber,
		MonthlySalary: monthlySalary,
		ApprovedLimit: ApprovedLimitFor(monthlySalary),
		CurrentDebt:   0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApprovedLimitFor derives the credit limit granted at registration:
// 36x monthly salary, rounded to the nearest 100,000.
func ApprovedLimitFor(monthlySalary float64) float64 {
	return math.Round(approvedLimitMultiplier*monthlySalary/approvedLimitGranularity) * approvedLimitGranularity
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
