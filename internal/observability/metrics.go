package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RelationChanges counts favorite/cart/follow adds and removes.
	RelationChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_changes_total",
			Help: "Favorite, shopping cart and follow additions and removals.",
		},
		[]string{"kind", "op"}, // kind: favorite|cart|follow; op: add|remove
	)

	// ShoppingListExports counts shopping-list downloads by format.
	ShoppingListExports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_list_exports_total",
			Help: "Shopping list downloads by output format.",
		},
		[]string{"format"},
	)

	// RecipeWrites counts successful recipe mutations.
	RecipeWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_writes_total",
			Help: "Recipe creates, updates and deletes.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(RelationChanges, ShoppingListExports, RecipeWrites)
}
