package valuation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/coinfolio/internal/models"
)

var testRates = models.RateTable{
	"bitcoin":  {USD: 50000, CNY: 360000, USD24hChange: 1.5, CNY24hChange: 1.4},
	"ethereum": {USD: 3000, CNY: 21600},
	"solana":   {USD: 150, CNY: 1080},
	"tether":   {USD: 1, CNY: 7.2},
}

func TestAdjust_SingleHolding(t *testing.T) {
	out := Adjust([]models.Holding{{Coin: "BTC", Amount: 1}}, models.RateTable{"bitcoin": {USD: 50000, CNY: 360000}}, models.CurrencyUSD)

	require.Len(t, out, 1)
	assert.Equal(t, 50000.0, out[0].Value)
	assert.Equal(t, 100.0, out[0].Percentage)
}

func TestAdjust_UnmappedCoinKeepsBaseline(t *testing.T) {
	holdings := []models.Holding{
		{Coin: "BTC", Amount: 1},
		{Coin: "XYZ", Amount: 5, Value: 10},
	}
	out := Adjust(holdings, models.RateTable{"bitcoin": {USD: 50000, CNY: 360000}}, models.CurrencyUSD)

	require.Len(t, out, 2)
	assert.Equal(t, 50000.0, out[0].Value)
	assert.InDelta(t, 99.98, out[0].Percentage, 0.005)
	assert.Equal(t, 10.0, out[1].Value)
	assert.InDelta(t, 0.02, out[1].Percentage, 0.005)
	assert.InDelta(t, 100.0, out[0].Percentage+out[1].Percentage, 1e-9)

	assert.Equal(t, []string{"XYZ"}, Unresolved(holdings, testRates, models.CurrencyUSD))
}

func TestAdjust_MappedCoinMissingFromTable(t *testing.T) {
	holdings := []models.Holding{{Coin: "ETH", Amount: 2, Value: 5000, Percentage: 100}}
	out := Adjust(holdings, models.RateTable{"bitcoin": {USD: 1}}, models.CurrencyUSD)

	assert.Equal(t, 5000.0, out[0].Value)
	assert.Equal(t, 100.0, out[0].Percentage)
}

func TestAdjust_Empty(t *testing.T) {
	out := Adjust(nil, testRates, models.CurrencyUSD)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Equal(t, 0.0, Total(out))
}

func TestAdjust_NilRatesPassthrough(t *testing.T) {
	holdings := []models.Holding{
		{Coin: "BTC", Amount: 1, Value: 48000, Percentage: 80},
		{Coin: "ETH", Amount: 4, Value: 12000, Percentage: 20},
	}
	out := Adjust(holdings, nil, models.CurrencyCNY)
	assert.Equal(t, holdings, out)
}

func TestAdjust_ZeroTotalKeepsPriorPercentage(t *testing.T) {
	holdings := []models.Holding{
		{Coin: "XYZ", Amount: 1, Percentage: 60},
		{Coin: "ABC", Amount: 1, Percentage: 40},
	}
	out := Adjust(holdings, testRates, models.CurrencyUSD)
	assert.Equal(t, 60.0, out[0].Percentage)
	assert.Equal(t, 40.0, out[1].Percentage)
}

func TestAdjust_CNY(t *testing.T) {
	out := Adjust([]models.Holding{{Coin: "BTC", Amount: 0.5}, {Coin: "USDT", Amount: 1000}}, testRates, models.CurrencyCNY)
	assert.Equal(t, 180000.0, out[0].Value)
	assert.Equal(t, 7200.0, out[1].Value)
	assert.InDelta(t, 187200.0, Total(out), 1e-9)
}

func TestAdjust_DoesNotMutateInput(t *testing.T) {
	holdings := []models.Holding{{Coin: "BTC", Amount: 2, Value: 1, Percentage: 50}, {Coin: "SOL", Amount: 10, Value: 1, Percentage: 50}}
	snapshot := append([]models.Holding(nil), holdings...)

	_ = Adjust(holdings, testRates, models.CurrencyUSD)
	assert.Equal(t, snapshot, holdings)
}

func TestAdjust_ReferentiallyTransparent(t *testing.T) {
	holdings := []models.Holding{{Coin: "BTC", Amount: 0.3}, {Coin: "ETH", Amount: 7}, {Coin: "DOGE", Amount: 1, Value: 3}}
	a := Adjust(holdings, testRates, models.CurrencyUSD)
	b := Adjust(holdings, testRates, models.CurrencyUSD)
	assert.Equal(t, a, b)
}

func TestAdjust_PercentagesSumTo100(t *testing.T) {
	coins := []string{"BTC", "ETH", "SOL", "USDT", "XYZ", "DOGE"}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := rng.Intn(8)
		holdings := make([]models.Holding, n)
		for j := range holdings {
			holdings[j] = models.Holding{
				Coin:   coins[rng.Intn(len(coins))],
				Amount: rng.Float64() * 100,
				Value:  rng.Float64() * 1000,
			}
		}
		currency := models.CurrencyUSD
		if rng.Intn(2) == 0 {
			currency = models.CurrencyCNY
		}

		out := Adjust(holdings, testRates, currency)
		if Total(out) <= 0 {
			continue
		}
		var sum float64
		for _, h := range out {
			sum += h.Percentage
		}
		assert.InDelta(t, 100.0, sum, 1e-6, "iteration %d", i)
	}
}

func TestUnresolved_NilRates(t *testing.T) {
	holdings := []models.Holding{{Coin: "BTC"}, {Coin: "ETH"}}
	assert.Equal(t, []string{"BTC", "ETH"}, Unresolved(holdings, nil, models.CurrencyUSD))
}

func TestAdjust_NonFiniteValueKeepsBaseline(t *testing.T) {
	holdings := []models.Holding{
		{Coin: "BTC", Amount: 1e200, Value: 0, Percentage: 50},
		{Coin: "ETH", Amount: 1},
	}
	rates := models.RateTable{"bitcoin": {USD: 1e200}, "ethereum": {USD: 2000}}

	out := Adjust(holdings, rates, models.CurrencyUSD)
	require.Len(t, out, 2)
	assert.Equal(t, 0.0, out[0].Value)
	assert.Equal(t, 2000.0, out[1].Value)
	assert.Equal(t, 0.0, out[0].Percentage)
	assert.Equal(t, 100.0, out[1].Percentage)
	assert.Equal(t, []string{"BTC"}, Unresolved(holdings, rates, models.CurrencyUSD))
}

func TestAdjust_OverflowingTotalKeepsBaseline(t *testing.T) {
	holdings := []models.Holding{
		{Coin: "BTC", Amount: 1e300, Value: 10, Percentage: 25},
		{Coin: "ETH", Amount: 1e300, Value: 30, Percentage: 75},
	}
	rates := models.RateTable{"bitcoin": {USD: 1e8}, "ethereum": {USD: 1e8}}

	out := Adjust(holdings, rates, models.CurrencyUSD)
	assert.Equal(t, holdings, out)
	assert.Equal(t, 40.0, Total(out))
}
