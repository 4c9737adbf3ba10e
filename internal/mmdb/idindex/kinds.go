// Package idindex maps external identifiers found in record URLs (DOIs,
// ORCIDs, Wikidata entities and so on) to publications and persons.
package idindex

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/dblp-mmdb/pkg/errors"
)

// Side says which kind of entity an identifier kind names.
type Side int

const (
	SidePublication Side = iota
	SidePerson
	SideStream
)

func (s Side) String() string {
	switch s {
	case SidePublication:
		return "publication"
	case SidePerson:
		return "person"
	case SideStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Kind is one identifier scheme: how to recognise it in a URL, how to turn
// an id back into a URL and how to normalise ids for lookup.
type Kind struct {
	Name  string
	Label string
	Side  Side

	pattern   *regexp.Regexp
	exclude   string
	format    string
	normalize func(string) string
}

func newKind(side Side, name, label, pattern, format string, normalize func(string) string) *Kind {
	if normalize == nil {
		normalize = identity
	}
	return &Kind{
		Name:      name,
		Label:     label,
		Side:      side,
		pattern:   regexp.MustCompile("^" + pattern + "$"),
		format:    format,
		normalize: normalize,
	}
}

func (k *Kind) String() string { return k.Name }

// Match extracts the normalised id from url.
func (k *Kind) Match(url string) (string, bool) {
	m := k.pattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	id := m[k.pattern.SubexpIndex("id")]
	if k.exclude != "" && strings.HasPrefix(id, k.exclude) {
		return "", false
	}
	return k.normalize(id), true
}

// URL returns the resolvable URL of id.
func (k *Kind) URL(id string) string {
	return fmt.Sprintf(k.format, k.normalize(id))
}

func (k *Kind) Normalize(id string) string {
	return k.normalize(id)
}

func identity(s string) string { return s }

// keep returns a normaliser that optionally upper- or lower-cases its input
// and then drops every byte not in allowed.
func keep(allowed string, fold func(string) string) func(string) string {
	return func(s string) string {
		if fold != nil {
			s = fold(s)
		}
		var sb strings.Builder
		sb.Grow(len(s))
		for i := 0; i < len(s); i++ {
			if strings.IndexByte(allowed, s[i]) >= 0 {
				sb.WriteByte(s[i])
			}
		}
		return sb.String()
	}
}

const (
	digits      = "0123456789"
	digitsX     = digits + "X"
	alnumDash   = digits + "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_-"
	imdbChars   = digits + "nm"
	wikidataIDs = digits + "Q"
)

// normalizeORCID keeps digits and X and regroups them in blocks of four.
func normalizeORCID(id string) string {
	id = keep(digitsX, strings.ToUpper)(id)
	var sb strings.Builder
	for i := 0; i < len(id); i += 4 {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(id[i:min(i+4, len(id))])
	}
	return sb.String()
}

var (
	PubDBLP     = newKind(SidePublication, "DBLP", "dblp record key", `https?://dblp\.org/rec/(?P<id>.*)`, "https://dblp.org/rec/%s", nil)
	PubDNB      = withExclude(newKind(SidePublication, "DNB", "DNB ID", `https?://d-nb\.info/(?P<id>.*)`, "http://d-nb.info/%s", keep(digitsX, strings.ToUpper)), "gnd/")
	PubDOI      = newKind(SidePublication, "DOI", "DOI", `https?://((dx\.)?doi|doi\.ieeecomputersociety|doi\.acm)\.org/(?P<id>.*)`, "https://doi.org/%s", strings.ToUpper)
	PubHandle   = newKind(SidePublication, "HANDLE", "Handle System ID", `https?://hdl\.handle\.net/(?P<id>.*)`, "http://hdl.handle.net/%s", nil)
	PubISBN     = newKind(SidePublication, "ISBN", "ISBN", `https?://www\.worldcat\.org/isbn/(?P<id>.*)`, "https://www.worldcat.org/isbn/%s", keep(digitsX, strings.ToUpper))
	PubURNNBNDE = newKind(SidePublication, "URN_NBN_DE", "German National Library URN", `https?://nbn-resolving\.(de|org)/(?P<id>urn:.*)`, "http://nbn-resolving.de/%s", nil)
	PubWikidata = newKind(SidePublication, "WIKIDATA", "wikidata", `https://www\.wikidata\.org/entity/(?P<id>.*)`, "https://www.wikidata.org/entity/%s", nil)
	PubArXiv    = newKind(SidePublication, "ARXIV", "arXiv", `https?://arxiv\.org/abs/(?P<id>.*)`, "https://arxiv.org/abs/%s", nil)
)

// PublicationKinds lists the publication identifier kinds in match order.
var PublicationKinds = []*Kind{
	PubDBLP, PubDNB, PubDOI, PubHandle, PubISBN, PubURNNBNDE, PubWikidata, PubArXiv,
}

var (
	PersonDBLP     = newKind(SidePerson, "DBLP", "dblp author PID", `https?://dblp\.org/pid/(?P<id>.*)`, "https://dblp.org/pid/%s", nil)
	PersonORCID    = newKind(SidePerson, "ORCID", "ORCID", `https?://(www\.)?orcid\.org/(?P<id>.*)`, "https://orcid.org/%s", normalizeORCID)
	PersonWikidata = newKind(SidePerson, "WIKIDATA", "WikiData entity ID", `https?://(www\.)?wikidata\.org/(wiki|entity)/(?P<id>.*)`, "https://www.wikidata.org/entity/%s", keep(wikidataIDs, strings.ToUpper))
	PersonGND      = newKind(SidePerson, "GND", "DNB GND ID", `https?://d-nb\.info/gnd/(?P<id>.*)`, "https://d-nb.info/gnd/%s", keep(digitsX, strings.ToUpper))
)

// PersonKinds lists the person identifier kinds in match order.
var PersonKinds = []*Kind{
	newKind(SidePerson, "ACM_DL", "ACM author ID", `https?://dl\.acm\.org/author_page\.cfm\?id=(?P<id>.*)`, "https://dl.acm.org/author_page.cfm?id=%s", keep(digits, nil)),
	newKind(SidePerson, "ARXIV", "arXiv author ID", `https?://arxiv\.org/a/(?P<id>.*)`, "https://arxiv.org/a/%s", nil),
	newKind(SidePerson, "BNF", "BNF Archival Resource Key", `http://catalogue\.bnf\.fr/ark:/12148/cb(?P<id>.*)`, "https://catalogue.bnf.fr/ark:/12148/cb%s", nil),
	newKind(SidePerson, "CNPQ_LATTES", "CNPq Lattes ID", `https?://lattes\.cnpq\.br/(?P<id>.*)`, "http://lattes.cnpq.br/%s", nil),
	newKind(SidePerson, "COLCIENCIAS_SCIENTI", "Colciencias ScienTI ID", `https?://scienti[0-9]?\.colciencias\.gov\.co(:8081)?/cvlac/visualizador/generarCurriculoCv\.do\?cod_rh=(?P<id>.*)`, "https://scienti.colciencias.gov.co/cvlac/visualizador/generarCurriculoCv.do?cod_rh=%s", keep(digits, nil)),
	PersonDBLP,
	newKind(SidePerson, "DFG_GEPRIS", "DFG GEPRIS ID", `https?://gepris\.dfg\.de/gepris/person/(?P<id>.*)`, "https://gepris.dfg.de/gepris/person/%s", nil),
	newKind(SidePerson, "FAST", "OCLC FAST Linked Data ID", `https?://(id|experimental)\.worldcat\.org/fast/(?P<id>.*)`, "https://id.worldcat.org/fast/%s", nil),
	newKind(SidePerson, "GITHUB", "GitHub user ID", `https?://(www\.)?github\.com/(?P<id>.*)`, "https://github.com/%s", nil),
	PersonGND,
	newKind(SidePerson, "GOOGLE_SCHOLAR", "Google Scholar author ID", `https?://scholar\.google\.[a-z]+(\.[a-z]+)?/citations\?user=(?P<id>.*)`, "https://scholar.google.com/citations?user=%s", keep(alnumDash, nil)),
	newKind(SidePerson, "IMDB", "IMDB", `https?://(www\.)?imdb\.com/name/(?P<id>.*)/?`, "https://www.imdb.com/name/%s/", keep(imdbChars, strings.ToLower)),
	newKind(SidePerson, "ISNI", "ISNI", `https?://(www\.)?isni\.org/isni/(?P<id>.*)`, "http://isni.org/isni/%s", keep(digitsX, strings.ToUpper)),
	newKind(SidePerson, "LINKEDIN", "LinkedIn URL", `https?://(?P<id>([a-z]+\.)?linkedin\.com/.*)`, "https://%s", nil),
	newKind(SidePerson, "LOC", "Library of Congress ID", `https?://id\.loc\.gov/authorities/names/(?P<id>.*?)(\.html)?`, "https://id.loc.gov/authorities/names/%s", nil),
	newKind(SidePerson, "MATHSCINET", "MathSciNet author ID", `https?://(www\.)?ams\.org/mathscinet/(MRAuthorID/|search/author\.html\?mrauthid=)(?P<id>.*)`, "https://www.ams.org/mathscinet/MRAuthorID/%s", nil),
	newKind(SidePerson, "MATH_GENEALOGY", "MGP author ID", `https?://(www\.)?genealogy\.ams\.org/id\.php\?id=(?P<id>.*)`, "http://www.genealogy.ams.org/id.php?id=%s", nil),
	newKind(SidePerson, "MENDELEY", "Mendeley profile ID", `https?://(www\.)?mendeley\.com/profiles/(?P<id>.*)`, "https://www.mendeley.com/profiles/%s", nil),
	newKind(SidePerson, "NDL", "National Diet Library of Japan ID", `https?://id\.ndl\.go\.jp/auth/ndlna/(?P<id>.*)`, "https://id.ndl.go.jp/auth/ndlna/%s", nil),
	PersonORCID,
	newKind(SidePerson, "OPEN_LIBRARY", "Open Library ID", `https?://openlibrary\.org/authors/(?P<id>.*)`, "https://openlibrary.org/authors/%s", nil),
	newKind(SidePerson, "PSYCH_AUTHORS", "PsychAuthors ID", `https?://(www\.)?(psychauthors|zpid)\.de/psychauthors/index\.php\?wahl=forschung&uwahl=psychauthors&uuwahl=(?P<id>.*)`, "https://www.psychauthors.de/psychauthors/index.php?wahl=forschung&uwahl=psychauthors&uuwahl=%s", nil),
	newKind(SidePerson, "PUBLONS", "Publons ID", `https?://(www\.)?publons\.com/researcher/(?P<id>[0-9]*)(/.*)?`, "https://publons.com/researcher/%s", nil),
	newKind(SidePerson, "REPEC_SHORT_ID", "RePEc short ID", `https?://authors\.repec\.org/pro/(?P<id>.*)`, "https://authors.repec.org/pro/%s", nil),
	newKind(SidePerson, "RESEARCHER_ID", "ResearcherID", `https?://(www\.)?researcherid\.com/rid/(?P<id>.*)`, "https://www.researcherid.com/rid/%s", nil),
	newKind(SidePerson, "RESEARCHGATE", "ResearchGate author ID", `https?://(www\.)?researchgate\.net/profile/(?P<id>.*)`, "https://www.researchgate.net/profile/%s", nil),
	newKind(SidePerson, "SCOPUS", "Scopus author ID", `https?://(www\.)?scopus\.com/authid/detail\.uri\?authorId=(?P<id>.*)`, "https://www.scopus.com/authid/detail.uri?authorId=%s", nil),
	newKind(SidePerson, "SUDOC", "SUDOC identifier", `https?://www\.idref\.fr/(?P<id>.*)`, "https://www.idref.fr/%s", nil),
	newKind(SidePerson, "TWITTER", "Twitter account ID", `https?://(www\.)?twitter\.com/(?P<id>.*)`, "https://twitter.com/%s", strings.ToLower),
	newKind(SidePerson, "VIAF", "VIAF ID", `https?://(www\.)?viaf\.org/viaf/(?P<id>.*)`, "https://viaf.org/viaf/%s", keep(digits, nil)),
	PersonWikidata,
	newKind(SidePerson, "WIKIPEDIA_EN", "English Wikipedia page ID", `https?://en\.wikipedia\.org/wiki/(?P<id>.*)`, "https://en.wikipedia.org/wiki/%s", nil),
	newKind(SidePerson, "ZBMATH", "zbMATH author ID", `https?://(www\.)?zbmath\.org/authors/\?q=ai:(?P<id>.*)`, "https://zbmath.org/authors/?q=ai:%s", nil),
}

// StreamKinds lists the venue identifier kinds.
var StreamKinds = []*Kind{
	newKind(SideStream, "DBLP", "dblp stream key", `https?://dblp\.org/db/(?P<id>.*)`, "https://dblp.org/db/%s", nil),
	newKind(SideStream, "ISSN", "ISSN", `https?://www\.worldcat\.org/issn/(?P<id>.*)`, "https://www.worldcat.org/issn/%s", nil),
	newKind(SideStream, "SPRINGER_LOD", "Springer LOD ID", `https?://lod\.springer\.com/data/(?P<id>.*)`, "http://lod.springer.com/data/%s", nil),
	newKind(SideStream, "WIKIDATA", "WikiData entity ID", `https?://(www\.)?wikidata\.org/(wiki|entity)/(?P<id>.*)`, "https://www.wikidata.org/entity/%s", nil),
}

func withExclude(k *Kind, prefix string) *Kind {
	k.exclude = prefix
	return k
}

// KindOf returns the first kind of side whose pattern matches url.
func KindOf(side Side, url string) (*Kind, string, bool) {
	for _, k := range kindsOf(side) {
		if id, ok := k.Match(url); ok {
			return k, id, true
		}
	}
	return nil, "", false
}

// KindByLabel looks a kind up by side and name, e.g. ("person", "ORCID").
// Names are matched case-insensitively.
func KindByLabel(side, name string) (*Kind, error) {
	var s Side
	switch strings.ToLower(side) {
	case "publication", "publications":
		s = SidePublication
	case "person", "persons":
		s = SidePerson
	case "stream", "streams":
		s = SideStream
	default:
		return nil, fmt.Errorf("%w: side %q", apperrors.ErrUnknownIDKind, side)
	}
	for _, k := range kindsOf(s) {
		if strings.EqualFold(k.Name, name) {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", apperrors.ErrUnknownIDKind, s, name)
}

func kindsOf(side Side) []*Kind {
	switch side {
	case SidePublication:
		return PublicationKinds
	case SidePerson:
		return PersonKinds
	case SideStream:
		return StreamKinds
	}
	return nil
}
