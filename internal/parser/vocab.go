package parser

// 技术技能词表，小写规范形式
// 子串匹配时在词边界上比较，避免 "go" 命中 "google" 之类的误报
var techSkills = []string{
	"python", "java", "javascript", "typescript", "golang", "go", "c++", "c#",
	"ruby", "php", "rust", "kotlin", "swift", "scala", "r", "sql", "nosql",
	"html", "css", "react", "angular", "vue", "node.js", "django", "flask",
	"spring", "fastapi", "rails", "laravel", ".net", "express",
	"mysql", "postgresql", "mongodb", "redis", "elasticsearch", "cassandra",
	"oracle", "sqlite", "mariadb", "rabbitmq", "kafka",
	"docker", "kubernetes", "terraform", "ansible", "jenkins", "git",
	"aws", "azure", "gcp", "linux", "bash", "ci/cd", "devops",
	"machine learning", "deep learning", "nlp", "computer vision",
	"tensorflow", "pytorch", "scikit-learn", "pandas", "numpy", "spark",
	"hadoop", "airflow", "tableau", "power bi", "excel",
	"agile", "scrum", "jira", "rest", "graphql", "grpc", "microservices",
}

// 语言别名归一化表: 各种本地化写法 -> 规范语言名
var languageAliases = map[string]string{
	"english":    "English",
	"anglais":    "English",
	"french":     "French",
	"français":   "French",
	"francais":   "French",
	"spanish":    "Spanish",
	"espagnol":   "Spanish",
	"español":    "Spanish",
	"german":     "German",
	"allemand":   "German",
	"deutsch":    "German",
	"italian":    "Italian",
	"italien":    "Italian",
	"portuguese": "Portuguese",
	"portugais":  "Portuguese",
	"arabic":     "Arabic",
	"arabe":      "Arabic",
	"chinese":    "Chinese",
	"chinois":    "Chinese",
	"mandarin":   "Chinese",
	"japanese":   "Japanese",
	"japonais":   "Japanese",
	"russian":    "Russian",
	"russe":      "Russian",
	"dutch":      "Dutch",
	"hindi":      "Hindi",
}

// 学历关键词，小写
var degreeKeywords = []string{
	"bachelor", "master", "phd", "ph.d", "doctorate", "doctorat",
	"licence", "license", "mba", "b.sc", "m.sc", "bsc", "msc",
	"b.a", "m.a", "bts", "dut", "ingénieur", "ingenieur", "diplôme", "diplome",
	"baccalauréat", "baccalaureat",
}

// 章节定位关键词，小写
// 既用于定位目标章节起点，也用于界定其他章节作为边界
var sectionKeywords = []string{
	"skills", "compétences", "competences", "technologies",
	"experience", "expérience", "work history", "employment", "parcours",
	"education", "formation", "études", "etudes", "academic",
	"languages", "langues",
	"projects", "projets", "certifications", "interests", "loisirs",
	"summary", "profile", "profil", "contact", "references",
}

// 技能章节的起始关键词子集
var skillsSectionKeywords = []string{"skills", "compétences", "competences", "technologies"}

// 教育章节的起始关键词子集
var educationSectionKeywords = []string{"education", "formation", "études", "etudes", "academic"}

// 章节内分词时排除的常见停用词，小写
var sectionStopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "in": {}, "with": {}, "a": {}, "an": {},
	"to": {}, "for": {}, "on": {}, "at": {}, "or": {}, "de": {}, "et": {},
	"la": {}, "le": {}, "les": {}, "des": {}, "du": {}, "en": {}, "un": {},
	"une": {}, "skills": {}, "compétences": {}, "competences": {},
	"technologies": {}, "knowledge": {}, "proficient": {}, "experienced": {},
	"years": {}, "using": {}, "including": {}, "etc": {},
}
