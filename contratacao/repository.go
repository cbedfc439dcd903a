package contratacao

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// NewInMemoryContratacaoRepository keeps contratacoes in a map, indexed by id
// and by proposta
func NewInMemoryContratacaoRepository() ContratacaoRepository {
	return &inMemoryContratacaoRepository{
		byID:       map[string]*Contratacao{},
		byProposta: map[string]string{},
	}
}

type inMemoryContratacaoRepository struct {
	mu sync.RWMutex

	byID       map[string]*Contratacao
	byProposta map[string]string
}

func (r *inMemoryContratacaoRepository) Add(ctx context.Context, contratacao *Contratacao) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[contratacao.ID]; exists {
		return errors.Errorf("contratação %s já existe", contratacao.ID)
	}

	if _, exists := r.byProposta[contratacao.PropostaID]; exists {
		return errors.Errorf("proposta %s já foi contratada", contratacao.PropostaID)
	}

	c := *contratacao
	r.byID[contratacao.ID] = &c
	r.byProposta[contratacao.PropostaID] = contratacao.ID

	return nil
}

func (r *inMemoryContratacaoRepository) GetByPropostaID(ctx context.Context, propostaID string) (*Contratacao, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byProposta[propostaID]
	if !exists {
		return nil, nil
	}

	c := *r.byID[id]
	return &c, nil
}

func (r *inMemoryContratacaoRepository) Delete(ctx context.Context, contratacaoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	contratacao, exists := r.byID[contratacaoID]
	if !exists {
		return errors.Errorf("contratação %s não encontrada", contratacaoID)
	}

	delete(r.byID, contratacaoID)
	delete(r.byProposta, contratacao.PropostaID)

	return nil
}
