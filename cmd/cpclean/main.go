// cpclean selects which dirty training rows to clean so that a KNN
// classifier's predictions on a validation set become certain.
package main

import (
	"os"

	"github.com/tensorplex-labs/budgetclean/cmd/cpclean/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
