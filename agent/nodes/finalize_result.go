package routernode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

func FinalizeResult(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Result.Status == "" {
		return GraphOutput{}, fmt.Errorf("%w: no result produced for %s", contractx.ErrValidation, in.Tool)
	}
	return GraphOutput{Result: in.Result}, nil
}
