package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/colelamarris56-code/price-monitor/internal/models"
)

type stubAdapter struct{ name string }

func (s *stubAdapter) FetchPrice(ctx context.Context, rawURL string) (models.PriceObservation, error) {
	return models.PriceObservation{}, nil
}

func TestRegistryResolve(t *testing.T) {
	amazon := &stubAdapter{name: "amazon"}
	newegg := &stubAdapter{name: "newegg"}

	registry := NewRegistry()
	registry.Register("amazon.com", amazon)
	registry.Register("newegg.com", newegg)

	tests := []struct {
		name string
		url  string
		want Adapter
	}{
		{name: "plain host", url: "https://amazon.com/dp/B0TEST", want: amazon},
		{name: "www prefix stripped", url: "https://www.amazon.com/dp/B0TEST", want: amazon},
		{name: "host is case-insensitive", url: "https://www.Amazon.COM/dp/B0TEST", want: amazon},
		{name: "different paths map to the same adapter", url: "https://newegg.com/p/N82E1", want: newegg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Resolve(tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolved wrong adapter for %s", tt.url)
			}
		})
	}
}

func TestRegistryResolveSameAdapterForEquivalentHosts(t *testing.T) {
	registry := NewRegistry()
	registry.Register("example.com", &stubAdapter{})

	a, err := registry.Resolve("https://www.Example.com/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := registry.Resolve("https://example.com/y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Error("equivalent hosts resolved to different adapters")
	}
}

func TestRegistryResolveUnknownSource(t *testing.T) {
	registry := NewRegistry()
	registry.Register("amazon.com", &stubAdapter{})

	_, err := registry.Resolve("https://unknown-shop.com/item/1")
	if !errors.Is(err, ErrAdapterNotFound) {
		t.Errorf("expected ErrAdapterNotFound, got %v", err)
	}
}

func TestRegistryResolveInvalidURL(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Resolve("not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestSource(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "strips www", url: "https://www.amazon.com/dp/1", want: "amazon.com"},
		{name: "lowercases", url: "https://NewEgg.com/p/1", want: "newegg.com"},
		{name: "keeps inner www", url: "https://shop.www-deals.com/x", want: "shop.www-deals.com"},
		{name: "no host", url: "/relative/path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Source(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Source(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
