package runtime

import "github.com/aretw0/partree/pkg/domain"

// Encoder turns a region into the fixed-size vector handed to the policy.
//
// Every range endpoint is clamped to its field maximum and written big-endian:
// as bytes scaled to [0, 1] by default (26 values), or as individual bits when
// OneHot is set (208 values). Dimensions are laid out in order, left before right.
type Encoder struct {
	OneHot bool
}

var fieldBits = func() int {
	n := 0
	for _, b := range domain.FieldBits {
		n += int(b)
	}
	return n
}()

// Size returns the observation length.
func (e Encoder) Size() int {
	if e.OneHot {
		return 2 * fieldBits
	}
	return 2 * fieldBits / 8
}

// Zero returns the terminal observation.
func (e Encoder) Zero() domain.Observation {
	return make(domain.Observation, e.Size())
}

// Encode returns the observation of r.
func (e Encoder) Encode(r *domain.Region) domain.Observation {
	obs := make(domain.Observation, 0, e.Size())
	for d, rng := range r.Ranges {
		bits := domain.FieldBits[d]
		for _, v := range [2]int64{rng.Left, rng.Right} {
			v = max(0, min(v, int64(1)<<bits-1))
			if e.OneHot {
				for i := int(bits) - 1; i >= 0; i-- {
					obs = append(obs, float64((v>>i)&1))
				}
				continue
			}
			for i := int(bits)/8 - 1; i >= 0; i-- {
				obs = append(obs, float64((v>>(8*i))&0xff)/255)
			}
		}
	}
	return obs
}
