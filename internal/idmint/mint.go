// Package idmint hands out NXRM2-shaped staging repository ids, one
// monotonic counter per profile, in the "<profile>-<n>" form the legacy
// publishing plugins expect.
package idmint

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

type Mint struct {
	mu       sync.Mutex
	counters map[string]int
}

func New() *Mint {
	return &Mint{counters: map[string]int{}}
}

// Next validates profile and returns the next id for it. Callers that also
// need to insert the resulting session into a registry must hold a lock
// that spans both the mint and the insert, or two concurrent callers could
// reorder themselves between id allocation and visibility.
func (m *Mint) Next(profile string) (string, error) {
	if profile == "" {
		return "", domain.NewError(domain.KindMalformedBody, "profile name is required")
	}
	if strings.ContainsAny(profile, "/ \t\r\n") {
		return "", domain.NewError(domain.KindMalformedBody, "profile name must not contain slashes or whitespace")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[profile]++
	return fmt.Sprintf("%s-%d", profile, m.counters[profile]), nil
}
