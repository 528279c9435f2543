package corpus

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
	}{
		{"punctuation and digits", "Neural Machine Translation  (NMT) #2021", "neural machine translation nmt"},
		{"already normalized", "neural machine translation nmt", "neural machine translation nmt"},
		{"tabs and newlines", "Attention\tIs All\nYou Need", "attention is all you need"},
		{"unicode compatibility forms", "ﬁne-grained NER", "fine grained ner"},
		{"empty", "", ""},
		{"only digits", "2021", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTitle(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Normalization must be idempotent
			if again := NormalizeTitle(got); again != got {
				t.Errorf("NormalizeTitle not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.18653/V1/2020.ACL_MAIN.1", "10.18653/v1/2020.acl_main.1"},
		{"10.18653/v1/2020.acl-main.1", "10.18653/v1/2020.aclmain.1"},
		{"https://doi.org/10.1038/Nature12373", "10.1038/nature12373"},
		{"10.1234/a,10.5678/b", "10.1234/a"},
		{" 10.1000/xyz(2)_test. ", "10.1000/xyz(2)_test."},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShardPrefix(t *testing.T) {
	if got := ShardPrefix("253018145"); got != "2530" {
		t.Errorf("ShardPrefix = %q, want 2530", got)
	}
	if got := ShardPrefix("42"); got != "42" {
		t.Errorf("ShardPrefix short ID = %q, want 42", got)
	}
	if got := AuthorShardPrefix("A5023888391"); got != "5023" {
		t.Errorf("AuthorShardPrefix = %q, want 5023", got)
	}
}

func TestParseWorkAndDOIIDs(t *testing.T) {
	if got := ParseWorkID("https://openalex.org/W2741809807"); got != "W2741809807" {
		t.Errorf("ParseWorkID = %q", got)
	}
	if got := ParseDOIID("https://doi.org/10.7717/PEERJ.4375"); got != "10.7717/peerj.4375" {
		t.Errorf("ParseDOIID = %q", got)
	}
}

func TestTitleSearchFilter(t *testing.T) {
	got := TitleSearchFilter(`BERT: Pre-training, "Deep" Models!`, "", "")
	want := "title.search:bert  pre-training   deep  models "
	if got != want {
		t.Errorf("TitleSearchFilter = %q, want %q", got, want)
	}

	got = TitleSearchFilter("Attention Is All You Need", "year", "2017")
	want = "title.search:attention is all you need,publication_year:2017"
	if got != want {
		t.Errorf("TitleSearchFilter with year = %q, want %q", got, want)
	}
}

func TestPartitionFor(t *testing.T) {
	if PartitionFor(true) != PartitionACL || PartitionFor(false) != PartitionOther {
		t.Error("PartitionFor mapping is wrong")
	}
	if !PartitionACL.IsACL() || PartitionOther.IsACL() {
		t.Error("IsACL mapping is wrong")
	}
}
