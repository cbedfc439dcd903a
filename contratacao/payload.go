package contratacao

// ContratarPropostaData is the payload of the contratacao saga. Steps fill it in
// as the saga moves forward and read it back during compensation.
type ContratarPropostaData struct {
	PropostaID   string       `json:"propostaId"`
	Proposta     *Proposta    `json:"proposta,omitempty"`
	Contratacao  *Contratacao `json:"contratacao,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}
