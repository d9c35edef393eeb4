// Package searchgate embeds the searchgate indexing and search pipeline in a
// Go program, talking to OpenSearch directly instead of over HTTP.
//
//	client, _ := searchgate.New(ctx,
//	    searchgate.WithEndpoint("https://search.internal:9200"),
//	    searchgate.WithBasicAuth("admin", secret),
//	)
//
//	report, _ := client.Index(ctx, "techdocs", docs)
//
//	q, _ := searchgate.NewQuery(`"service catalog"`, searchgate.Filters{
//	    "kind": searchgate.Scalar("Component"),
//	}, 25, "")
//	page, _ := client.Search(ctx, q)
//
// Long-running producers can keep one Indexer per document type and feed it
// documents as they arrive; every full batch is written before Accept
// returns and Close writes the remainder.
package searchgate
