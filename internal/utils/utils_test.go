package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNetValueAndDiscount(t *testing.T) {
	assert.True(t, NetValue(d("350"), d("50")).Equal(d("300")))
	assert.True(t, NetValue(d("100"), d("120")).IsNegative())
	assert.True(t, DiscountFromPercent(d("333.33"), d("10")).Equal(d("33.33")))
}

func TestIsSettled(t *testing.T) {
	assert.True(t, IsSettled(d("0.01")))
	assert.True(t, IsSettled(d("-5")))
	assert.False(t, IsSettled(d("0.02")))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatBRL(d("1234.56")))
	assert.Equal(t, "R$ 0,00", FormatBRL(decimal.Zero))
	assert.Equal(t, "-R$ 10,50", FormatBRL(d("-10.5")))
}

func TestCPF(t *testing.T) {
	assert.Equal(t, "529.982.247-25", FormatCPF("52998224725"))
	assert.True(t, ValidCPF("529.982.247-25"))
	assert.False(t, ValidCPF("529.982.247-24"))
	assert.False(t, ValidCPF("111.111.111-11"))
	assert.False(t, ValidCPF("123"))
}

func TestPhone(t *testing.T) {
	assert.Equal(t, "(21) 98765-4321", FormatPhone("21987654321"))
	assert.Equal(t, "(21) 3456-7890", FormatPhone("+55 21 3456-7890"))
	assert.Equal(t, "123", FormatPhone(" 123 "))
	assert.Equal(t, "5521987654321", NormalizePhoneBR("(21) 98765-4321"))
	assert.Equal(t, "5521987654321", NormalizePhoneBR("+55 21 98765-4321"))
	assert.Equal(t, "", NormalizePhoneBR("123"))
}

func TestFoldGroupName(t *testing.T) {
	assert.Equal(t, "familia sao joao", FoldGroupName("  Família   São João "))
}

func TestFoldGroupNameConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "acao", FoldGroupName("Ação"))
			}
		}()
	}
	wg.Wait()
}

func TestInRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.Local)
	assert.True(t, InRange(time.Date(2024, 3, 31, 22, 0, 0, 0, time.Local), start, end))
	assert.False(t, InRange(time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local), start, end))
	assert.True(t, InRange(time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local), start, time.Time{}))
}

func TestAddMonths(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 1))
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 2))
}

func TestParseDate(t *testing.T) {
	a, err := ParseDate("15/08/2024")
	assert.NoError(t, err)
	b, err := ParseDate("2024-08-15")
	assert.NoError(t, err)
	assert.True(t, a.Equal(b))
}
