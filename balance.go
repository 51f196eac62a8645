package ugen

import "math"

// Balance attenuates one side of a stereo signal rather than moving it the
// way a pan would. Zero leaves the audio alone; positive values pull down the
// right channel and negative values pull down the left, like the balance
// knob on a stereo.
type Balance struct {
	Unit
	Audio *Input
	// BalanceIn optionally drives the balance at control rate; values are
	// expected in [-1, 1].
	BalanceIn *Input

	balance float64
}

func NewBalance(balance float64) *Balance {
	b := &Balance{balance: balance}
	b.Audio = b.In("audio", Audio)
	b.BalanceIn = b.In("balance", Control)
	return b
}

func (b *Balance) SetBalance(v float64) { b.balance = v }

func (b *Balance) Generate(out Block) {
	if b.BalanceIn.Patched() {
		b.balance = b.BalanceIn.Value()
	}
	for ch := range out {
		src := b.Audio.Values(ch)
		gain := math.Min(1, math.Max(0, 1+math.Pow(-1, float64(ch))*b.balance))
		for i := range out[ch] {
			var x float64
			if src != nil {
				x = src[i]
			}
			out[ch][i] = x * gain
		}
	}
}
