// Command ls-chartcore computes planetary returns, astrocartography lines
// and eclipse activations for a natal chart.
package main

func main() {
	Execute()
}
