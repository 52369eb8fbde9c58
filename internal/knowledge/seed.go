package knowledge

// builtinSnippets is the static knowledge table used when no index has been
// mirrored locally. Keywords are matched against the retrieval query, so
// they mirror the tokens the query formulator emits (parameter names and
// risk phrases).
var builtinSnippets = []Snippet{
	{
		Keyword: "crp",
		Source:  "builtin/crp",
		Content: "C-reactive protein (CRP) is an acute-phase protein produced by the liver. Values above 10 mg/L suggest an inflammatory process; values above 100 mg/L are associated with severe bacterial infection or sepsis. CRP rises within hours of the inflammatory stimulus and falls quickly after its resolution, which makes it suitable for monitoring treatment response.",
	},
	{
		Keyword: "inflammatory",
		Source:  "builtin/crp",
		Content: "Elevated inflammatory markers should be interpreted together with the leukocyte count and the clinical picture. Mild CRP elevations also occur with viral infections, trauma, and chronic inflammatory diseases.",
	},
	{
		Keyword: "glukóza",
		Source:  "builtin/hyperglycemia",
		Content: "Fasting plasma glucose above 7.0 mmol/L on repeated measurement meets the diagnostic criteria for diabetes mellitus; a random value above 11.1 mmol/L with classic symptoms is likewise diagnostic. Values between 5.6 and 6.9 mmol/L indicate impaired fasting glycemia and warrant an oral glucose tolerance test.",
	},
	{
		Keyword: "glucose",
		Source:  "builtin/hyperglycemia",
		Content: "Hyperglycemia requires confirmation before a diagnosis of diabetes is made. Stress, acute illness, and corticosteroid therapy transiently raise glucose levels.",
	},
	{
		Keyword: "psa",
		Source:  "builtin/psa",
		Content: "Prostate specific antigen (PSA) interpretation is age dependent; reference limits rise with age. Elevations occur with prostate carcinoma but also with benign prostatic hyperplasia, prostatitis, and after urological procedures. PSA dynamics over time carry more information than a single value.",
	},
	{
		Keyword: "hcg",
		Source:  "builtin/hcg",
		Content: "Human chorionic gonadotropin (hCG) above the method cutoff is suggestive of pregnancy. In early pregnancy the value doubles roughly every two days; an inadequate rise or a fall suggests a non-progressing or ectopic pregnancy. Cumulative evaluation against previous values is essential.",
	},
	{
		Keyword: "krevní obraz",
		Source:  "builtin/blood-count",
		Content: "The complete blood count evaluates erythrocytes, leukocytes, and platelets. Isolated mild deviations are common and often transient; interpretation should weight the whole panel, the differential, and the clinical context.",
	},
	{
		Keyword: "moč",
		Source:  "builtin/urine-sediment",
		Content: "Urinalysis with sediment screens for urinary tract infection, hematuria, and proteinuria. Leukocytes and nitrites together suggest bacterial infection; isolated findings require correlation with symptoms and repeat testing.",
	},
}
