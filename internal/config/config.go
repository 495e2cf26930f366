package config

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/shoplane/order/internal/service/models/money"
	"github.com/shoplane/order/internal/service/pricing"
	"github.com/shoplane/order/pkg/logger"
)

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil {
		panic("error while loading .env file: " + err.Error())
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/order-svc")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

func SetupLogger() {
	handler := logger.NewHandler(nil)
	log := slog.New(handler)
	slog.SetDefault(log)
}

// MustNewCalculator builds the price calculator from configuration.
func MustNewCalculator() pricing.Calculator {
	taxRate, err := decimal.NewFromString(viper.GetString("pricing.tax_rate"))
	if err != nil {
		panic("invalid pricing.tax_rate: " + err.Error())
	}

	threshold, err := money.Parse(viper.GetString("pricing.free_shipping_threshold"))
	if err != nil {
		panic("invalid pricing.free_shipping_threshold: " + err.Error())
	}

	fee, err := money.Parse(viper.GetString("pricing.shipping_fee"))
	if err != nil {
		panic("invalid pricing.shipping_fee: " + err.Error())
	}

	return pricing.Calculator{
		TaxRate:               taxRate,
		FreeShippingThreshold: threshold,
		ShippingFee:           fee,
	}
}
