package inmemory

import (
	"time"

	contratosdomain "ronda-app-go/internal/domain/contratos"
)

type ContratoCache struct {
	cache *ttlCache[contratosdomain.Contrato]
}

func NewContratoCache() *ContratoCache {
	return &ContratoCache{cache: newTTLCache[contratosdomain.Contrato]()}
}

func (c *ContratoCache) Get(id string) (*contratosdomain.Contrato, bool) {
	value, ok := c.cache.get(id)
	if !ok {
		return nil, false
	}
	return &value, true
}

func (c *ContratoCache) Set(id string, contrato *contratosdomain.Contrato, ttl time.Duration) {
	if contrato == nil {
		c.cache.delete(id)
		return
	}
	c.cache.set(id, *contrato, ttl)
}

func (c *ContratoCache) Delete(id string) {
	c.cache.delete(id)
}

func (c *ContratoCache) Clear() {
	c.cache.clear()
}
