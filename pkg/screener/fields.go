package screener

// DefaultFields is the security data point list requested when a search does
// not name its own fields.
var DefaultFields = []string{
	"SecId",
	"TenforeId",
	"LegalName",
	"fundShareClassId",
	"Universe",
	"ISIN",
	"ExchangeId",
	"ClosePrice",
	"CategoryName",
	"StarRatingM255",
	"GBRReturnM12",
	"GBRReturnM36",
	"GBRReturnM60",
}

// IdentifierFields is the minimal field set needed to resolve a security by
// term.
var IdentifierFields = []string{
	"fundShareClassId",
	"SecId",
	"TenforeId",
	"LegalName",
	"Universe",
	"ISIN",
}

// StockFilters lists the filter names the upstream accepts for stock
// searches.
var StockFilters = []string{
	"DebtEquityRatio",
	"DividendYield",
	"EpsGrowth3YYear1",
	"EquityStyleBox",
	"GBRReturnM0",
	"GBRReturnM12",
	"GBRReturnM36",
	"GBRReturnM60",
	"IndustryId",
	"MarketCap",
	"NetMargin",
	"PBRatio",
	"PERatio",
	"ROATTM",
	"ROETTM",
	"RevenueGrowth3Y",
	"SectorId",
}

// FundFilters lists the filter names the upstream accepts for fund
// searches.
var FundFilters = []string{
	"AdministratorCompanyId",
	"AnalystRatingScale",
	"BrandingCompanyId",
	"CategoryId",
	"CollectedSRRI",
	"DistributionStatus",
	"ExpenseRatio",
	"FeeLevel",
	"FundTNAV",
	"GBRReturnM0",
	"GBRReturnM12",
	"GBRReturnM36",
	"GBRReturnM60",
	"GlobalAssetClassId",
	"GlobalCategoryId",
	"IMASectorID",
	"IndexFund",
	"OngoingCharge",
	"StarRatingM255",
	"SustainabilityRank",
	"UmbrellaCompanyId",
	"Yield_M12",
}

func validFilterSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
