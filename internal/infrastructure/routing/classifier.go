package routing

import (
	"github.com/Nyukimin/mcpchat/internal/domain/routing"
	"github.com/Nyukimin/mcpchat/pkg/logger"
)

// Classifier は複数のルール辞書を順に照合する
type Classifier struct {
	dictionaries []*RuleDictionary
}

// NewClassifier consults Gmail, then Forms, then Drive. Drive goes last
// because its search and list rules need no service keyword.
func NewClassifier() *Classifier {
	return NewClassifierWith(NewGmailDictionary(), NewFormsDictionary(), NewDriveDictionary())
}

// NewClassifierWith は指定した辞書で Classifier を作成
func NewClassifierWith(dictionaries ...*RuleDictionary) *Classifier {
	return &Classifier{dictionaries: dictionaries}
}

// Classify returns the first known intent, or false when no dictionary
// recognizes the text.
func (c *Classifier) Classify(text string) (routing.Intent, bool) {
	for _, d := range c.dictionaries {
		intent, ok := d.Match(text)
		if !ok {
			continue
		}
		logger.DebugCF("routing", "intent.matched", map[string]interface{}{
			"domain": intent.Domain.String(),
			"action": intent.Action.String(),
			"rule":   intent.Rule,
			"fields": len(intent.Fields),
		})
		return intent, true
	}

	return routing.Intent{}, false
}

// Dictionary returns the dictionary for a domain, or nil.
func (c *Classifier) Dictionary(domain routing.Domain) *RuleDictionary {
	for _, d := range c.dictionaries {
		if d.Domain() == domain {
			return d
		}
	}
	return nil
}
