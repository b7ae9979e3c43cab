package briefing

import (
	"hash/fnv"
	"time"

	"FinanceDesk/internal/model"
)

// quotes is the quote-of-the-day table. Reordering it changes which quote a
// given date maps to.
var quotes = []model.Wisdom{
	{Quote: "The happiness of your life depends upon the quality of your thoughts.", Author: "Marcus Aurelius"},
	{Quote: "What lies behind us and what lies before us are tiny matters compared to what lies within us.", Author: "Ralph Waldo Emerson"},
	{Quote: "The obstacle is the way.", Author: "Marcus Aurelius"},
	{Quote: "We suffer more often in imagination than in reality.", Author: "Seneca"},
	{Quote: "The best time to plant a tree was 20 years ago. The second best time is now.", Author: "Chinese Proverb"},
	{Quote: "It is not the man who has too little, but the man who craves more, that is poor.", Author: "Seneca"},
	{Quote: "You have power over your mind - not outside events. Realize this, and you will find strength.", Author: "Marcus Aurelius"},
	{Quote: "He who has a why to live can bear almost any how.", Author: "Friedrich Nietzsche"},
	{Quote: "The only way to do great work is to love what you do.", Author: "Steve Jobs"},
	{Quote: "In the middle of difficulty lies opportunity.", Author: "Albert Einstein"},
	{Quote: "The wound is the place where the Light enters you.", Author: "Rumi"},
	{Quote: "Everything you've ever wanted is on the other side of fear.", Author: "George Addair"},
	{Quote: "The purpose of life is not to be happy. It is to be useful, to be honorable, to be compassionate.", Author: "Ralph Waldo Emerson"},
	{Quote: "What you get by achieving your goals is not as important as what you become by achieving your goals.", Author: "Zig Ziglar"},
	{Quote: "Waste no more time arguing about what a good man should be. Be one.", Author: "Marcus Aurelius"},
	{Quote: "The only impossible journey is the one you never begin.", Author: "Tony Robbins"},
	{Quote: "Your time is limited, don't waste it living someone else's life.", Author: "Steve Jobs"},
	{Quote: "Life is 10% what happens to you and 90% how you react to it.", Author: "Charles R. Swindoll"},
	{Quote: "The greatest glory in living lies not in never falling, but in rising every time we fall.", Author: "Nelson Mandela"},
	{Quote: "Very little is needed to make a happy life; it is all within yourself, in your way of thinking.", Author: "Marcus Aurelius"},
	{Quote: "The mind is everything. What you think you become.", Author: "Buddha"},
	{Quote: "Gratitude turns what we have into enough.", Author: "Anonymous"},
	{Quote: "Be yourself; everyone else is already taken.", Author: "Oscar Wilde"},
	{Quote: "The only limit to our realization of tomorrow is our doubts of today.", Author: "Franklin D. Roosevelt"},
	{Quote: "You must be the change you wish to see in the world.", Author: "Mahatma Gandhi"},
	{Quote: "It does not matter how slowly you go as long as you do not stop.", Author: "Confucius"},
	{Quote: "The secret of getting ahead is getting started.", Author: "Mark Twain"},
	{Quote: "Believe you can and you're halfway there.", Author: "Theodore Roosevelt"},
	{Quote: "Everything has beauty, but not everyone sees it.", Author: "Confucius"},
	{Quote: "The journey of a thousand miles begins with one step.", Author: "Lao Tzu"},
}

// DailyWisdom returns the quote for t's calendar date. The index is the
// FNV-1a hash of the YYYY-MM-DD string modulo the table size.
func DailyWisdom(t time.Time) model.Wisdom {
	h := fnv.New32a()
	_, _ = h.Write([]byte(t.Format(time.DateOnly)))
	return quotes[h.Sum32()%uint32(len(quotes))]
}

// Quotes returns a copy of the table.
func Quotes() []model.Wisdom {
	return append([]model.Wisdom(nil), quotes...)
}
