package availability

import (
	"fmt"

	"github.com/initializ/glewlwyd-console/api"
)

// suggest probes base+NN candidates until one is available, the attempt
// budget runs out, the server fails with anything but a client error, or a
// newer edit supersedes gen.
func (c *Checker) suggest(key, base string, gen uint64) SuggestionResult {
	res := SuggestionResult{Key: key, Generation: gen}
	for res.Probes < c.maxSuggestions {
		candidate := fmt.Sprintf("%s%02d", base, c.rand(100))
		res.Probes++
		err := c.prober.CheckUsername(c.ctx, candidate)
		if !c.current(key, gen) {
			return res
		}
		if err == nil {
			res.Username = candidate
			return res
		}
		if !api.IsClientError(err) {
			res.Err = err
			return res
		}
	}
	return res
}
