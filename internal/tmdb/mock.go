package tmdb

import (
	"strings"

	"github.com/reelsync/reelsync/internal/entities"
)

// mockDataset is the fixed fallback served when the API is unreachable or
// unconfigured. Keep it small but varied enough for demo screens.
var mockDataset = []struct {
	id       int64
	title    string
	overview string
	poster   string
	backdrop string
	release  string
	vote     float64
	genres   []int
}{
	{238, "The Godfather", "The aging patriarch of an organized crime dynasty transfers control of his empire to his reluctant son.", "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg", "/tmU7GeKVybMWFButWEGl2M4GeiP.jpg", "1972-03-14", 8.7, []int{18, 80}},
	{278, "The Shawshank Redemption", "Imprisoned in the 1940s for the double murder of his wife and her lover, banker Andy Dufresne begins a new life at Shawshank prison.", "/9cqNxx0GxF0bflZmeSMuL5tnGzr.jpg", "/kXfqcdQKsToO0OUXHcrrNCHDBzO.jpg", "1994-09-23", 8.7, []int{18, 80}},
	{550, "Fight Club", "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression into a shocking new form of therapy.", "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", "/hZkgoQYus5vegHoetLkCJzb17zJ.jpg", "1999-10-15", 8.4, []int{18}},
	{603, "The Matrix", "Set in the 22nd century, The Matrix tells the story of a computer hacker who joins a group of underground insurgents fighting the vast and powerful computers who now rule the earth.", "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg", "/fNG7i7RqMErkcqhohV2a6cV1Ehy.jpg", "1999-03-31", 8.2, []int{28, 878}},
	{680, "Pulp Fiction", "A burger-loving hit man, his philosophical partner, a drug-addled gangster's moll and a washed-up boxer converge in this sprawling, comedic crime caper.", "/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg", "/suaEOtk1N1sgg2MTM7oZd2cfVp3.jpg", "1994-09-10", 8.5, []int{53, 80}},
	{13, "Forrest Gump", "A man with a low IQ has accomplished great things in his life and been present during significant historic events.", "/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg", "/ghgfzbEV7kbpbi1O8eIILKVXEA8.jpg", "1994-06-23", 8.5, []int{35, 18, 10749}},
	{27205, "Inception", "Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets, is offered a chance to regain his old life.", "/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg", "/s3TBrRGB1iav7gFOCNx3H31MoES.jpg", "2010-07-15", 8.4, []int{28, 878, 12}},
	{155, "The Dark Knight", "Batman raises the stakes in his war on crime with the help of Lt. Jim Gordon and District Attorney Harvey Dent.", "/qJ2tW6WMUDux911r6m7haRef0WH.jpg", "/hkBaDkMWbLaf8B1lsWsKX7Ew3Xq.jpg", "2008-07-16", 8.5, []int{18, 28, 80, 53}},
}

// MockMovies returns a fresh copy of the fallback dataset.
func MockMovies() []entities.Movie {
	movies := make([]entities.Movie, 0, len(mockDataset))
	for _, m := range mockDataset {
		movie := entities.Movie{
			ID:           m.id,
			Title:        m.title,
			Overview:     m.overview,
			PosterPath:   m.poster,
			BackdropPath: m.backdrop,
			ReleaseDate:  m.release,
			VoteAverage:  m.vote,
		}
		movie.SetGenres(m.genres)
		movies = append(movies, movie)
	}
	return movies
}

func searchMock(query string) []entities.Movie {
	query = strings.ToLower(strings.TrimSpace(query))
	var matches []entities.Movie
	for _, movie := range MockMovies() {
		if strings.Contains(strings.ToLower(movie.Title), query) {
			matches = append(matches, movie)
		}
	}
	if matches == nil {
		matches = []entities.Movie{}
	}
	return matches
}

func mockByID(id int64) *entities.Movie {
	for _, movie := range MockMovies() {
		if movie.ID == id {
			return &movie
		}
	}
	return nil
}
