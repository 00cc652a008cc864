package config

import (
	"sync"
	"time"
)

// PCI modes. In redirect mode the gateway hosts the card form and no card
// data touches this service.
const (
	PCIModeRedirect = "redirect"
	PCIModeDirect   = "direct"
)

// Token charge methods supported by the gateway.
const (
	TokenMethodJ2 = "J2"
	TokenMethodJ5 = "J5"
)

// Settings holds the SUMIT account configuration consulted on every gateway
// operation. Changing a value through the store takes effect on the next
// call; nothing is cached by the callers.
type Settings struct {
	CompanyID           string
	APIKey              string
	PublicKey           string
	MerchantNumber      string
	SubsMerchantNumber  string
	Environment         string // subdomain of sumit.co.il, e.g. "www"
	BaseURL             string // overrides Environment when set (used in tests)
	TestingMode         bool
	PCIMode             string
	TokenMethod         string
	APITimeout          time.Duration
	SendClientIP        bool
	VATIncluded         bool
	VATRate             float64
	DocumentLanguage    string
	MaximumPayments     int
	DraftDocument       bool
	EmailDocument       bool
	VerifyWebhookSig    bool
	CallbackURL         string
}

// SettingsProvider supplies the current gateway settings. Implementations
// must be safe for concurrent use.
type SettingsProvider interface {
	Current() Settings
}

// SettingsStore is a mutable, concurrency-safe SettingsProvider.
type SettingsStore struct {
	mu sync.RWMutex
	s  Settings
}

// NewSettingsStore creates a store seeded with the given settings.
func NewSettingsStore(s Settings) *SettingsStore {
	return &SettingsStore{s: s}
}

// SettingsFromConfig builds the initial settings from environment config.
func SettingsFromConfig(cfg *Config) Settings {
	return Settings{
		CompanyID:          cfg.SumitCompanyID,
		APIKey:             cfg.SumitAPIKey,
		PublicKey:          cfg.SumitPublicKey,
		MerchantNumber:     cfg.SumitMerchantNumber,
		SubsMerchantNumber: cfg.SumitSubsMerchant,
		Environment:        cfg.SumitEnvironment,
		BaseURL:            cfg.SumitBaseURL,
		TestingMode:        cfg.SumitTestingMode,
		PCIMode:            cfg.SumitPCIMode,
		TokenMethod:        cfg.SumitTokenMethod,
		APITimeout:         time.Duration(cfg.SumitAPITimeoutSecs) * time.Second,
		SendClientIP:       cfg.SumitSendClientIP,
		VATIncluded:        cfg.SumitVATIncluded,
		VATRate:            cfg.SumitVATRate,
		DocumentLanguage:   cfg.SumitDocumentLanguage,
		MaximumPayments:    cfg.SumitMaximumPayments,
		DraftDocument:      cfg.SumitDraftDocument,
		EmailDocument:      cfg.SumitEmailDocument,
		VerifyWebhookSig:   cfg.SumitVerifyWebhooks,
		CallbackURL:        cfg.SumitCallbackURL,
	}
}

// Current returns a copy of the current settings.
func (st *SettingsStore) Current() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// Update applies fn to the settings under the write lock.
func (st *SettingsStore) Update(fn func(*Settings)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.s)
}
