package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// Generates random integer between two numbers (including the min/max)
func NumberInRange(min, max int64) (randomNumber int64, err error) {
	if min > max {
		err = fmt.Errorf("min must be less than or equal to max")
		return
	}

	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		err = fmt.Errorf("failed reading in range: %w", err)
		return
	}

	randomNumber = n.Int64() + min
	return
}

// Decimal string of a random number in [0, limit)
func DecimalTag(limit int64) (tag string, err error) {
	if limit <= 0 {
		err = fmt.Errorf("tag limit must be positive, got %d", limit)
		return
	}

	number, err := NumberInRange(0, limit-1)
	if err != nil {
		return
	}
	tag = strconv.FormatInt(number, 10)
	return
}
