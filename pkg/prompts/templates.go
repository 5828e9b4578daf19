// Package prompts holds every prompt template used by the agent and
// the tool pipelines, together with pure builder functions that fill
// them in. The package imports nothing from the rest of the core so
// the prompt catalog can be edited without dependency cycles.
package prompts

// agentSystemBase is the system prompt shared by all agent modes.
const agentSystemBase = `You are Ask Atlas, an assistant that answers questions about international trade using the Atlas of Economic Complexity, a research tool from the Harvard Growth Lab.

You can answer questions about exports, imports, trade partners, products, economic complexity, and related growth metrics for nearly every country in the world.

Core rules:
- Answer data questions by calling a tool. Never fabricate trade figures from memory.
- Each tool takes a natural-language question. Pass the user's question through faithfully; add a short "context" string only when earlier conversation turns carry detail the tool needs.
- After a tool returns, ground your answer entirely in the returned data. Cite figures as returned, with their years and units.
- If a tool call fails, explain briefly that the query failed and why, then try a corrected call if a correction is plausible.
- If a question is outside the scope of trade and economic complexity data, politely decline and say what you can help with instead. Do not call any tool for out-of-scope questions.
- Keep answers concise and quantitative. Lead with the number the user asked for.`

// agentSQLToolSection describes query_tool. Used alone in sql_only mode.
const agentSQLToolSection = `Available data tool:
- query_tool(question, context?): runs a SQL query against the trade data warehouse. Use it for rankings, time series, bilateral flows, product-level detail, and any question needing aggregation or filtering.`

// agentGraphQLToolSection describes atlas_graphql. Used alone in graphql_only mode.
const agentGraphQLToolSection = `Available data tool:
- atlas_graphql(question, context?): queries the public Atlas API. Use it for country profiles, export composition treemaps, top trade partners, newly exported products, growth projections, and product-space RCA questions.`

// agentDualToolTemplate is the extension used when both data tools are
// available. %s = budget status line, %d = SQL data max year,
// %d = GraphQL data max year.
const agentDualToolTemplate = `Available data tools:
- atlas_graphql(question, context?): queries the public Atlas API. Prefer it for country profiles, export composition treemaps, top trade partners, newly exported products, growth projections, and product-space RCA questions. It is fast but covers only those fixed shapes.
- query_tool(question, context?): runs a SQL query against the trade data warehouse. Use it for anything atlas_graphql cannot express: custom aggregations, bilateral detail, multi-year comparisons, unusual filters.

%s

Data coverage:
- The SQL warehouse covers trade data through %d.
- The Atlas API covers data through %d.
When the requested year is beyond one source's coverage, use the other.`

// agentDocsToolSection describes docs_tool.
const agentDocsToolSection = `Methodology tool:
- docs_tool(question, context?): consults the Atlas methodology documentation. Use it for questions about metric definitions (ECI, PCI, RCA, COG, distance), data caveats, classification systems, or how a visualization is computed. It does not return trade figures and does not count against your query limit.`

// budgetAvailableTemplate reports remaining API budget.
// %d = remaining requests, %d = max requests.
const budgetAvailableTemplate = `API budget: %d of %d atlas_graphql requests remaining.`

// budgetExhausted replaces the budget line once the API budget is spent.
const budgetExhausted = `API budget: exhausted. Use query_tool for all remaining data questions.`

// productExtractionTemplate asks which classification schemas a
// question implies and which product names it mentions.
// %s = question, %s = optional context block.
const productExtractionTemplate = `Identify which product classification schemas this trade question requires, and whether it names specific products.

Question: %s%s

Classification schemas:
- hs92: goods, Harmonized System 1992 revision. The default for goods questions.
- hs12: goods, Harmonized System 2012 revision. Only when the question asks for it explicitly.
- sitc: goods, SITC revision 2. Only for long historical series (before 1995) or when asked explicitly.
- services_unilateral: services trade totals by country.
- services_bilateral: services trade between country pairs.

Rules:
- Default to hs92 when the question is about goods and names no schema.
- Include a goods schema and a services schema together only when the question clearly asks about both goods and services.
- Never return more than two schemas.
- A product is "mentioned" when the question names it in words (e.g. "cars", "soybeans") without giving a numeric code. Suggest candidate codes if you are confident, but they will be verified against the database.`

// productCodeSelectionTemplate asks the model to pick final codes from
// verified candidates. %s = question, %s = candidate block.
const productCodeSelectionTemplate = `Select the product codes that best match what this trade question is asking about.

Question: %s

Candidate codes found in the classification tables:
%s

Rules:
- Pick only codes clearly referring to the product the question names. Prefer the code level the question implies (broad product: 2 or 4 digits; specific good: 4 or 6 digits).
- Exclude near-miss candidates that name a different product.
- Return an empty code list for a product when none of its candidates fit.`

// sqlGenerationTemplate is the frontier-tier SQL writing prompt.
// %s = question, %d = row cap, %s = table info block,
// %s = optional product-code block, %s = optional constraint block,
// %s = optional context block, %d = data max year.
const sqlGenerationTemplate = `Write a single PostgreSQL SELECT statement answering this question about international trade.

Question: %s

Rules:
- Output exactly one SELECT statement. No DDL, DML, comments, or multiple statements.
- Limit results to at most %d rows.
- Trade values are in current US dollars.
- When the question does not specify a code granularity, use 4-digit HS codes.
- Join classification tables to return human-readable product and country names, not bare codes.
- Use ISO3 codes when filtering countries.
- The data covers years up to %d; when the question says "latest" or names no year, use the most recent year available in the relevant table.

Available tables:
%s%s%s%s

Return only the SQL, with no explanation.`

// sqlProductCodesTemplate injects verified product codes.
// %s = formatted code listing.
const sqlProductCodesTemplate = `

Verified product codes for the products mentioned (filter on these, do not guess codes):
%s`

// sqlDirectionConstraintTemplate pins the trade direction.
// %s = "exports" or "imports".
const sqlDirectionConstraintTemplate = `

Constraint: analyze %s only.`

// sqlModeConstraintTemplate pins goods vs services.
// %s = "goods" or "services".
const sqlModeConstraintTemplate = `

Constraint: analyze %s trade only.`

// sqlContextTemplate injects technical context from the agent.
// %s = context text.
const sqlContextTemplate = `

Additional context from the conversation:
%s`

// graphqlClassificationTemplate routes a question to one API query type.
// %s = question, %s = optional context block.
const graphqlClassificationTemplate = `Classify this question into exactly one Atlas API query type.

Question: %s%s

Query types:
- country_profile: overview of a country's economy (total exports, GDP, ECI, growth outlook).
- treemap_products: what a country exports or imports, composition by product.
- treemap_partners: who a country trades with, composition by partner.
- new_products: products a country recently started exporting.
- country_growth: growth projections for a country.
- product_space_rca: which products a country is competitive in (RCA) or its product space position.
- out_of_scope: the question cannot be answered by any of the above (bilateral product detail, custom aggregations, multi-country comparisons, non-trade topics).

When the type is out_of_scope, set is_rejected and give a one-sentence rejection_reason.`

// graphqlEntityExtractionTemplate extracts entities for a classified
// query. %s = question, %s = query type, %s = optional context block,
// %s = optional services catalog block.
const graphqlEntityExtractionTemplate = `Extract the entities this Atlas API query needs from the question.

Question: %s
Query type: %s%s%s

Extract only what the question states:
- country: the main country named.
- partner_country: the partner, only for questions about trade between two countries.
- product: a product name, only when the question is about a specific product.
- year: a four-digit year, only when the question names one.
- direction: "exports" or "imports", only when stated or clearly implied.
- services_category: a services category from the catalog above, only when the question is about services.

Leave fields empty rather than guessing.`

// servicesCatalogTemplate lists services categories for extraction.
// %s = catalog listing.
const servicesCatalogTemplate = `

Services categories:
%s`

// idResolutionSelectionTemplate disambiguates catalog candidates.
// %s = entity type, %s = extracted name, %s = question,
// %s = candidate listing.
const idResolutionSelectionTemplate = `Pick the catalog entry that the question refers to.

Entity type: %s
Extracted name: %s
Question: %s

Candidates:
%s

Return the id of the single best match.`

// documentSelectionTemplate picks manifest entries for a methodology
// question. %d = max selections, %s = question, %s = optional context
// block, %s = numbered manifest.
const documentSelectionTemplate = `Select the documentation files needed to answer this question about Atlas methodology. Choose at most %d, and prefer the minimum relevant set.

Question: %s%s

Available documents:
%s

Return the indices of the selected documents.`

// documentationSynthesisTemplate produces a focused answer from the
// selected docs. %s = question, %s = optional context block,
// %s = concatenated document bodies.
const documentationSynthesisTemplate = `Answer this question about Atlas of Economic Complexity methodology using only the documentation below.

Question: %s%s

Documentation:
%s

Write a focused answer. Quote formulas and definitions exactly as documented. If the documentation does not cover the question, say so.`

// contextTemplate is the shared optional context block.
// %s = context text.
const contextTemplate = `
Context: %s`
