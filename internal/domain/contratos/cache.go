package contratos

import "time"

// Cache keeps recently read contratos; every request under
// /contratos/{id} resolves the contrato first.
type Cache interface {
	Get(id string) (*Contrato, bool)
	Set(id string, contrato *Contrato, ttl time.Duration)
	Delete(id string)
	Clear()
}

type noopCache struct{}

func (noopCache) Get(string) (*Contrato, bool) {
	return nil, false
}

func (noopCache) Set(string, *Contrato, time.Duration) {}

func (noopCache) Delete(string) {}

func (noopCache) Clear() {}
