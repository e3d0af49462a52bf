// Package ogm is an object-graph mapping layer on top of the Neo4j Go
// driver. It executes parameterized Cypher, manages session and transaction
// lifecycle including explicit multi-statement batching, and resolves raw
// driver values (nodes, relationships, paths, and containers of them) into
// the models registered on the client.
//
// # Basic Usage
//
//	cfg, _ := config.Load()
//	client := ogm.New(cfg)
//	err := client.Register(registry.Model{
//		Name:   "Person",
//		Labels: []string{"Person"},
//		Fields: []registry.FieldShape{{Name: "name"}, {Name: "age"}},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := client.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	res, err := client.Cypher(ctx, "MATCH (p:Person) RETURN p", nil)
//
// Within one call, every occurrence of the same element identifier resolves
// to the same entity instance. Property values are deflated on write and
// inflated on read under the capability rules of the configured backend
// (Neo4j or Memgraph): Neo4j stringifies nested values as JSON and requires
// homogeneous list properties, Memgraph stores both natively.
//
// # Batching
//
//	err := client.Batch(ctx, func(ctx context.Context) error {
//		if _, err := client.Cypher(ctx, "CREATE (:Person {name: $n})", map[string]any{"n": "Alice"}); err != nil {
//			return err
//		}
//		_, err := client.Cypher(ctx, "CREATE (:Person {name: $n})", map[string]any{"n": "Bob"})
//		return err
//	})
//
// All queries issued inside the block share one transaction: one commit on
// success, full rollback on the first failure.
package ogm
