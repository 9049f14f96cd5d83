package seg

import (
	"fmt"
	"sync"

	"github.com/doublemo/esmy"
)

var (
	regMu sync.RWMutex
	reg   = map[string]esmy.FeatureFactory{}
)

// RegisterFeature makes a feature type constructible from its on-disk
// (type tag, config) descriptor. Feature packages call this from an
// init() func; callers that want to open segments containing that
// feature must import the package (possibly blank) so init runs, the
// same driver-registration idiom database/sql uses.
func RegisterFeature(typeTag string, factory esmy.FeatureFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	reg[typeTag] = factory
}

// newFeature reconstructs a Feature from its descriptor, failing if the
// type tag was never registered.
func newFeature(d esmy.FeatureDescriptor) (esmy.Feature, error) {
	regMu.RLock()
	factory, ok := reg[d.TypeTag]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("seg: unregistered feature type %q for key %q", d.TypeTag, d.Key)
	}
	return factory(d.Key, d.Config)
}
