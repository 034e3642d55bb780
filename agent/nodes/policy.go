package routernode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

var toolHints = map[contractx.Tool]string{
	contractx.ToolMenuGuide:       "You can ask about a category, a price range, an item, or for a recommendation.",
	contractx.ToolOrderManagement: "You can say things like \"add 2 lattes\", \"remove the brownie\" or \"clear my cart\".",
}

// unresolvedOutcome turns an unresolved intent into either a clarify result or a
// user-facing error.
func unresolvedOutcome(tool contractx.Tool, in contractx.Intent) (contractx.Result, error) {
	switch in.Reason {
	case contractx.ReasonUnknownItem:
		mention := strings.TrimSpace(in.Mention)
		if mention == "" {
			return contractx.Result{}, contractx.Userf(contractx.ErrItemNotFound, "That item is not on the menu.")
		}
		return contractx.Result{}, contractx.Userf(contractx.ErrItemNotFound, "Sorry, %q is not on the menu.", mention)
	case contractx.ReasonAmbiguousItem:
		if len(in.Candidates) > 0 {
			return clarify("Did you mean %s?", joinOr(in.Candidates)), nil
		}
		return clarify("Which item do you mean?"), nil
	case contractx.ReasonMissingItem, contractx.ReasonNoReference:
		return clarify("Which item do you mean?"), nil
	case contractx.ReasonMissingQuantity:
		return clarify("How many would you like?"), nil
	case contractx.ReasonMultipleItems:
		return clarify("Please change one item at a time."), nil
	case contractx.ReasonEmptyQuery:
		return clarify("What would you like? %s", toolHints[tool]), nil
	}
	return clarify("Sorry, I did not catch that. %s", toolHints[tool]), nil
}

// wrongTool answers an intent that belongs to the other tool.
func wrongTool(in contractx.Intent) contractx.Result {
	want := in.Kind.Tool()
	msg := fmt.Sprintf("That looks like a menu question, please use %s.", want)
	if want == contractx.ToolOrderManagement {
		msg = fmt.Sprintf("That looks like an order change, please use %s.", want)
	}
	res := contractx.Clarify(contractx.CodeUnresolved, msg)
	res.Payload = map[string]any{
		"suggested_tool": want,
		"intent":         in.Kind,
	}
	return res
}

func clarify(format string, args ...any) contractx.Result {
	return contractx.Clarify(contractx.CodeUnresolved, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func joinOr(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}
