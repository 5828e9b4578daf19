package graphqlpipeline

// Query types returned by classify_query.
const (
	QueryTypeCountryProfile  = "country_profile"
	QueryTypeTreemapProducts = "treemap_products"
	QueryTypeTreemapPartners = "treemap_partners"
	QueryTypeNewProducts     = "new_products"
	QueryTypeCountryGrowth   = "country_growth"
	QueryTypeProductSpaceRCA = "product_space_rca"
	QueryTypeOutOfScope      = "out_of_scope"
)

// API targets. Profile-style queries hit the Country Pages sub-API;
// treemap and new-products queries hit Explore.
const (
	APITargetCountryPages = "country_pages"
	APITargetExplore      = "explore"
)

// apiTargetFor maps a query type to its sub-API.
func apiTargetFor(queryType string) string {
	switch queryType {
	case QueryTypeCountryProfile, QueryTypeCountryGrowth, QueryTypeProductSpaceRCA:
		return APITargetCountryPages
	default:
		return APITargetExplore
	}
}

// Fixed query templates, bound with resolved ids as variables.
const (
	countryProfileQuery = `query CountryProfile($countryId: ID!, $year: Int!) {
  countryProfile(countryId: $countryId, year: $year) {
    countryName
    totalExports
    totalImports
    gdpPerCapita
    eciRank
    eciValue
    totalCountries
    growthProjection
  }
}`

	treemapProductsQuery = `query TreemapProducts($countryId: ID!, $year: Int!, $direction: TradeDirection!) {
  treemapProducts(countryId: $countryId, year: $year, direction: $direction) {
    products {
      name
      code
      exportValue
      sharePercent
    }
    totalValue
  }
}`

	treemapPartnersQuery = `query TreemapPartners($countryId: ID!, $year: Int!, $direction: TradeDirection!) {
  treemapPartners(countryId: $countryId, year: $year, direction: $direction) {
    partners {
      name
      iso3
      exportValue
      sharePercent
    }
    totalValue
  }
}`

	newProductsQuery = `query NewProducts($countryId: ID!, $year: Int!) {
  newProducts(countryId: $countryId, year: $year) {
    products {
      name
      code
      exportValue
      firstYear
    }
  }
}`

	countryGrowthQuery = `query CountryGrowth($countryId: ID!) {
  countryGrowth(countryId: $countryId) {
    countryName
    growthProjection
    growthRank
    totalCountries
    drivers
  }
}`

	productSpaceRCAQuery = `query ProductSpaceRCA($countryId: ID!, $year: Int!) {
  productSpaceRca(countryId: $countryId, year: $year) {
    products {
      name
      code
      rca
      distance
      opportunityGain
    }
  }
}`
)

// queryFor returns the template for a query type, or "".
func queryFor(queryType string) string {
	switch queryType {
	case QueryTypeCountryProfile:
		return countryProfileQuery
	case QueryTypeTreemapProducts:
		return treemapProductsQuery
	case QueryTypeTreemapPartners:
		return treemapPartnersQuery
	case QueryTypeNewProducts:
		return newProductsQuery
	case QueryTypeCountryGrowth:
		return countryGrowthQuery
	case QueryTypeProductSpaceRCA:
		return productSpaceRCAQuery
	default:
		return ""
	}
}
